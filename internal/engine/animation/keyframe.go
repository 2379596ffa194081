// Package animation samples keyframed joint clips and applies them to skeletons.
package animation

import (
	"sort"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

// KeyFrame is one sampled channel value.
type KeyFrame[T any] struct {
	Time  float32
	Value T
}

// KeyFrameList is the ordered key sequence of one channel.
type KeyFrameList[T any] []KeyFrame[T]

// Sorted returns a copy ordered by ascending time. When several keys share a
// timestamp only the one listed last is kept.
func (l KeyFrameList[T]) Sorted() KeyFrameList[T] {
	if len(l) == 0 {
		return nil
	}
	out := make(KeyFrameList[T], len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	w := 0
	for i := range out {
		if w > 0 && out[w-1].Time == out[i].Time {
			out[w-1] = out[i]
			continue
		}
		out[w] = out[i]
		w++
	}
	return out[:w]
}

// LastTime returns the timestamp of the final key, or 0 for an empty list.
func (l KeyFrameList[T]) LastTime() float32 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Time
}

// bracket finds the keys around time. Before the first key and after the last
// one it clamps by returning the same index twice. A zero-length interval
// yields blend factor 0.
func (l KeyFrameList[T]) bracket(time float32) (i0, i1 int, blend float32) {
	// First key strictly after time.
	next := sort.Search(len(l), func(i int) bool { return l[i].Time > time })
	switch {
	case next == 0:
		return 0, 0, 0
	case next == len(l):
		return len(l) - 1, len(l) - 1, 0
	}

	i0, i1 = next-1, next
	span := l[i1].Time - l[i0].Time
	if span <= 0 {
		return i0, i1, 0
	}
	return i0, i1, (time - l[i0].Time) / span
}

// Sample interpolates the list at time using lerp. Exact key times return the
// stored value unchanged. Sampling an empty list returns def.
func (l KeyFrameList[T]) Sample(time float32, def T, lerp func(a, b T, t float32) T) T {
	if len(l) == 0 {
		return def
	}
	i0, i1, blend := l.bracket(time)
	if i0 == i1 || blend == 0 {
		return l[i0].Value
	}
	return lerp(l[i0].Value, l[i1].Value, blend)
}

func lerpVec3(a, b math.Vec3, t float32) math.Vec3 { return a.Lerp(b, t) }

func slerpQuat(a, b math.Quat, t float32) math.Quat { return a.Slerp(b, t) }

// SampleVec3 interpolates a translation or scale channel linearly.
func SampleVec3(l KeyFrameList[math.Vec3], time float32, def math.Vec3) math.Vec3 {
	return l.Sample(time, def, lerpVec3)
}

// SampleQuat interpolates a rotation channel with shortest-arc slerp.
func SampleQuat(l KeyFrameList[math.Quat], time float32, def math.Quat) math.Quat {
	return l.Sample(time, def, slerpQuat)
}
