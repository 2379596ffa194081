package assets

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/engine/animation"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/internal/logger"
)

// Registry errors.
var (
	ErrUnknownSkeleton  = errors.New("unknown skeleton")
	ErrUnknownAnimation = errors.New("unknown animation")
	ErrDuplicate        = errors.New("asset already registered")
)

// Registry holds named skeleton templates and clips shared by all entities.
// Clips are immutable and handed out directly; skeletons carry a mutable
// animated pose, so entities get their own copy through Instance.
type Registry struct {
	mu         sync.RWMutex
	skeletons  map[string]*skeleton.Skeleton
	animations map[string]*animation.Animation
	maxJoints  int

	hits   int
	misses int
	log    *zap.Logger
}

// NewRegistry creates an empty registry. maxJoints is the palette size for
// skeletons built by Load; zero keeps each rig's own limit.
func NewRegistry(maxJoints int) *Registry {
	return &Registry{
		skeletons:  make(map[string]*skeleton.Skeleton),
		animations: make(map[string]*animation.Animation),
		maxJoints:  maxJoints,
		log:        logger.Named("assets"),
	}
}

// AddSkeleton registers a skeleton template under name.
func (r *Registry) AddSkeleton(name string, s *skeleton.Skeleton) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skeletons[name]; ok {
		return errors.Wrapf(ErrDuplicate, "skeleton %q", name)
	}
	r.skeletons[name] = s
	return nil
}

// AddAnimation registers a clip under its own name.
func (r *Registry) AddAnimation(a *animation.Animation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.animations[a.Name()]; ok {
		return errors.Wrapf(ErrDuplicate, "animation %q", a.Name())
	}
	r.animations[a.Name()] = a
	return nil
}

// Skeleton returns the shared template. Callers must not pose it.
func (r *Registry) Skeleton(name string) (*skeleton.Skeleton, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.skeletons[name]
	r.count(ok)
	if !ok {
		return nil, errors.Wrap(ErrUnknownSkeleton, name)
	}
	return s, nil
}

// Instance returns a private copy of a skeleton for one entity.
func (r *Registry) Instance(name string) (*skeleton.Skeleton, error) {
	s, err := r.Skeleton(name)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Animation returns a clip by name.
func (r *Registry) Animation(name string) (*animation.Animation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.animations[name]
	r.count(ok)
	if !ok {
		return nil, errors.Wrap(ErrUnknownAnimation, name)
	}
	return a, nil
}

func (r *Registry) count(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

// Names returns the registered skeleton and animation names, sorted.
func (r *Registry) Names() (skeletons, animations []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.skeletons {
		skeletons = append(skeletons, name)
	}
	for name := range r.animations {
		animations = append(animations, name)
	}
	sort.Strings(skeletons)
	sort.Strings(animations)
	return skeletons, animations
}

// Stats returns lookup statistics.
func (r *Registry) Stats() (hits, misses int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hits, r.misses
}

// Load reads a rig source through m and registers its skeleton under the
// rig name and each clip under "rig/clip". It returns the rig name.
func (r *Registry) Load(m *Manager, path string) (string, error) {
	data, err := m.Load(path)
	if err != nil {
		return "", err
	}
	return r.Import(path, data)
}

// Import registers a rig source already in memory.
func (r *Registry) Import(path string, data []byte) (string, error) {
	rig, err := DecodeRig(path, data)
	if err != nil {
		return "", err
	}
	sk, err := BuildSkeleton(rig, r.maxJoints)
	if err != nil {
		return "", err
	}
	clips, err := BuildAnimations(rig)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skeletons[rig.Name]; ok {
		return "", errors.Wrapf(ErrDuplicate, "skeleton %q", rig.Name)
	}
	for _, c := range clips {
		if _, ok := r.animations[ClipName(rig.Name, c.Name())]; ok {
			return "", errors.Wrapf(ErrDuplicate, "animation %q", ClipName(rig.Name, c.Name()))
		}
	}
	r.skeletons[rig.Name] = sk
	for _, c := range clips {
		r.animations[ClipName(rig.Name, c.Name())] = c
	}

	r.log.Info("rig loaded",
		zap.String("path", path),
		zap.String("rig", rig.Name),
		zap.Int("joints", sk.JointCount()),
		zap.Int("clips", len(clips)),
	)
	return rig.Name, nil
}

// ClipName is the registry key of a clip loaded from a rig.
func ClipName(rig, clip string) string {
	return rig + "/" + clip
}
