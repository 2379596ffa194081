package animation

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Animation errors.
var (
	ErrInvalidDuration   = errors.New("animation duration shorter than its keys")
	ErrAnimationMismatch = errors.New("animation does not fit skeleton")
)

// JointChannels holds the translation, rotation and scale keys of one joint.
// Empty lists mean the component keeps its bind-pose value.
type JointChannels struct {
	Translation KeyFrameList[math.Vec3]
	Rotation    KeyFrameList[math.Quat]
	Scale       KeyFrameList[math.Vec3]
}

// Animated reports whether any component has keys.
func (c JointChannels) Animated() bool {
	return len(c.Translation) > 0 || len(c.Rotation) > 0 || len(c.Scale) > 0
}

func (c JointChannels) lastTime() float32 {
	return max(c.Translation.LastTime(), c.Rotation.LastTime(), c.Scale.LastTime())
}

// Animation is an immutable clip: one JointChannels entry per joint index.
// It can be shared read-only between any number of entities.
type Animation struct {
	name     string
	duration float32
	channels []JointChannels
}

// New builds a clip. Key lists are copied, sorted and de-duplicated, and
// rotation keys are normalized. channels[i] drives the joint with index i.
func New(name string, duration float32, channels []JointChannels) (*Animation, error) {
	a := &Animation{
		name:     name,
		duration: duration,
		channels: make([]JointChannels, len(channels)),
	}

	for i, c := range channels {
		rot := c.Rotation.Sorted()
		for k := range rot {
			rot[k].Value = rot[k].Value.Normalize()
		}
		a.channels[i] = JointChannels{
			Translation: c.Translation.Sorted(),
			Rotation:    rot,
			Scale:       c.Scale.Sorted(),
		}
		if last := a.channels[i].lastTime(); last > duration {
			return nil, fmt.Errorf("%w: %q joint %d has key at %g, duration %g", ErrInvalidDuration, name, i, last, duration)
		}
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: %q duration %g", ErrInvalidDuration, name, duration)
	}

	return a, nil
}

// Name returns the clip name.
func (a *Animation) Name() string { return a.name }

// Duration returns the clip length in key time units.
func (a *Animation) Duration() float32 { return a.duration }

// ChannelCount returns the number of joint channel sets.
func (a *Animation) ChannelCount() int { return len(a.channels) }

// Channels returns the keys for a joint index.
func (a *Animation) Channels(index int) JointChannels {
	if index < 0 || index >= len(a.channels) {
		return JointChannels{}
	}
	return a.channels[index]
}
