package entity

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
)

// UpdateAll advances every entity by dt on up to workers goroutines and
// returns after all of them finish. Entities bound to the same skeleton
// instance land in the same batch, so no joint tree is touched by two
// goroutines. workers <= 0 uses GOMAXPROCS. The first error is returned
// once every batch is done.
func UpdateAll(entities []*Entity, dt float32, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	batches := batchBySkeleton(entities)
	if len(batches) == 0 {
		return nil
	}
	workers = min(workers, len(batches))

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			var first error
			for b := w; b < len(batches); b += workers {
				for _, e := range batches[b] {
					if err := e.Update(dt); err != nil && first == nil {
						first = err
					}
				}
			}
			return first
		})
	}
	return g.Wait()
}

// batchBySkeleton groups entities by skeleton instance, keeping input order.
// Entities without a skeleton each get their own batch, and an entity listed
// twice is updated once.
func batchBySkeleton(entities []*Entity) [][]*Entity {
	var batches [][]*Entity
	bySkeleton := make(map[*skeleton.Skeleton]int)
	seen := make(map[*Entity]bool, len(entities))

	for _, e := range entities {
		if e == nil || seen[e] {
			continue
		}
		seen[e] = true

		var s *skeleton.Skeleton
		if e.Anim != nil {
			s = e.Anim.Skeleton()
		}
		if s == nil {
			batches = append(batches, []*Entity{e})
			continue
		}
		if i, ok := bySkeleton[s]; ok {
			batches[i] = append(batches[i], e)
			continue
		}
		bySkeleton[s] = len(batches)
		batches = append(batches, []*Entity{e})
	}
	return batches
}
