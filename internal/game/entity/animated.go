package entity

import (
	stdmath "math"

	"github.com/Faultbox/midgard-engine/internal/engine/animation"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
)

// Animated plays one clip on one skeleton instance and keeps the bone
// palette for the renderer. The skeleton and clip are only ever bound
// together when the clip fits.
type Animated struct {
	skeleton  *skeleton.Skeleton
	animation *animation.Animation
	palette   skeleton.Palette

	time  float32
	speed float32
	loop  bool
}

// NewAnimated creates an unbound component.
func NewAnimated(speed float32, loop bool) *Animated {
	return &Animated{speed: speed, loop: loop}
}

// Bind sets skeleton and clip together. A clip that does not fit is rejected
// and the previous binding stays in place. Playback restarts at zero.
func (a *Animated) Bind(s *skeleton.Skeleton, anim *animation.Animation) error {
	if anim != nil {
		if err := animation.Fit(s, anim); err != nil {
			return err
		}
	}
	a.skeleton = s
	a.animation = anim
	a.time = 0
	a.palette = nil
	return nil
}

// SetSkeleton swaps the skeleton, keeping the clip. Rejected when the
// current clip does not fit the new skeleton.
func (a *Animated) SetSkeleton(s *skeleton.Skeleton) error {
	return a.Bind(s, a.animation)
}

// SetAnimation swaps the clip, keeping the skeleton. A nil clip stops
// playback and leaves the skeleton in its bind pose on the next Update.
func (a *Animated) SetAnimation(anim *animation.Animation) error {
	return a.Bind(a.skeleton, anim)
}

// Skeleton returns the bound skeleton instance.
func (a *Animated) Skeleton() *skeleton.Skeleton { return a.skeleton }

// Animation returns the bound clip.
func (a *Animated) Animation() *animation.Animation { return a.animation }

// SetSpeed sets the playback rate. Negative speeds play backwards.
func (a *Animated) SetSpeed(speed float32) { a.speed = speed }

// Speed returns the playback rate.
func (a *Animated) Speed() float32 { return a.speed }

// SetLoop selects wrapping (true) or clamping at the clip ends.
func (a *Animated) SetLoop(loop bool) { a.loop = loop }

// Loop reports whether playback wraps.
func (a *Animated) Loop() bool { return a.loop }

// Time returns the current playback position.
func (a *Animated) Time() float32 { return a.time }

// SetTime moves the playback position, normalized like Update does.
func (a *Animated) SetTime(t float32) { a.time = a.normalize(t) }

// Reset rewinds playback to zero.
func (a *Animated) Reset() { a.time = 0 }

// Palette returns the bone palette written by the last Update.
func (a *Animated) Palette() skeleton.Palette { return a.palette }

// Update advances playback by dt scaled by speed, poses the skeleton and
// refreshes the palette. Without a clip the skeleton is held in bind pose.
func (a *Animated) Update(dt float32) error {
	if a.skeleton == nil {
		return nil
	}

	if a.animation == nil {
		a.skeleton.ResetPose()
	} else {
		a.time = a.normalize(a.time + dt*a.speed)
		if err := animation.Apply(a.skeleton, a.animation, a.time); err != nil {
			return err
		}
	}
	a.palette = a.skeleton.FillPalette(a.palette)
	return nil
}

func (a *Animated) normalize(t float32) float32 {
	if a.animation == nil {
		return max(t, 0)
	}
	d := a.animation.Duration()
	if d <= 0 {
		return 0
	}
	if !a.loop {
		return min(max(t, 0), d)
	}
	t = float32(stdmath.Mod(float64(t), float64(d)))
	if t < 0 {
		t += d
	}
	return t
}
