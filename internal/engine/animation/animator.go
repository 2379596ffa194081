package animation

import (
	"fmt"

	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// CheckFit reports whether a can drive s: one channel set per joint.
// Entity code calls it whenever either side of a binding changes.
func CheckFit(s *skeleton.Skeleton, a *Animation) bool {
	if s == nil || a == nil {
		return false
	}
	return a.ChannelCount() == s.JointCount()
}

// Fit is CheckFit reporting why a clip does not fit, as an
// ErrAnimationMismatch error.
func Fit(s *skeleton.Skeleton, a *Animation) error {
	if CheckFit(s, a) {
		return nil
	}
	return mismatch(s, a)
}

// SamplePose evaluates one joint of a at time. Components without keys fall
// back to bind, so unanimated joints keep their bind-pose local transform.
func SamplePose(a *Animation, index int, time float32, bind skeleton.Pose) skeleton.Pose {
	c := a.Channels(index)
	return skeleton.Pose{
		Translation: SampleVec3(c.Translation, time, bind.Translation),
		Rotation:    SampleQuat(c.Rotation, time, bind.Rotation),
		Scale:       SampleVec3(c.Scale, time, bind.Scale),
	}
}

// Apply samples every joint of s at time, stores the animated local
// transforms and recomputes world transforms root-first.
// Time is used as given; looping and clamping belong to the caller.
// A clip that does not fit returns ErrAnimationMismatch and leaves s untouched.
func Apply(s *skeleton.Skeleton, a *Animation, time float32) error {
	if !CheckFit(s, a) {
		return mismatch(s, a)
	}

	s.Root().ApplyLocal(math.Identity(), func(j *skeleton.Joint) math.Mat4 {
		if !a.channels[j.Index()].Animated() {
			return j.LocalBindTransform()
		}
		return SamplePose(a, j.Index(), time, j.BindPose()).Matrix()
	})
	return nil
}

func mismatch(s *skeleton.Skeleton, a *Animation) error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: no skeleton", ErrAnimationMismatch)
	case a == nil:
		return fmt.Errorf("%w: no animation", ErrAnimationMismatch)
	default:
		return fmt.Errorf("%w: %q has %d channels, skeleton has %d joints",
			ErrAnimationMismatch, a.Name(), a.ChannelCount(), s.JointCount())
	}
}
