package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-engine/internal/engine/animation"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

const halfPi = 1.5707963

func armSkeleton(t testing.TB) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.Build([]skeleton.JointSpec{
		{Name: "shoulder", Parent: -1, LocalBind: math.Translate(0, 1, 0)},
		{Name: "elbow", Parent: 0, LocalBind: math.Translate(2, 0, 0)},
		{Name: "wrist", Parent: 1, LocalBind: math.Translate(2, 0, 0)},
	}, 8)
	require.NoError(t, err)
	return sk
}

// raiseClip rotates the shoulder from rest to 90 degrees about Z over 2 seconds.
func raiseClip(t testing.TB, joints int) *animation.Animation {
	t.Helper()
	channels := make([]animation.JointChannels, joints)
	channels[0].Rotation = animation.KeyFrameList[math.Quat]{
		{Time: 0, Value: math.QuatIdentity()},
		{Time: 2, Value: math.QuatFromAxisAngle(math.Vec3{Z: 1}, halfPi)},
	}
	clip, err := animation.New("raise", 2, channels)
	require.NoError(t, err)
	return clip
}

func wristPosition(a *Animated) math.Vec3 {
	return a.Palette()[2].TransformPoint(math.Vec3{X: 4, Y: 1})
}

func TestBindRejectsMismatchAndKeepsBinding(t *testing.T) {
	sk := armSkeleton(t)
	clip := raiseClip(t, 3)

	a := NewAnimated(1, true)
	require.NoError(t, a.Bind(sk, clip))
	require.NoError(t, a.Update(0.5))

	err := a.SetAnimation(raiseClip(t, 2))
	assert.ErrorIs(t, err, animation.ErrAnimationMismatch)
	assert.Same(t, clip, a.Animation())
	assert.Same(t, sk, a.Skeleton())
	assert.Equal(t, float32(0.5), a.Time(), "rejected bind does not rewind")

	small, err := skeleton.Build([]skeleton.JointSpec{{Name: "root", Parent: -1, LocalBind: math.Identity()}}, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, a.SetSkeleton(small), animation.ErrAnimationMismatch)
	assert.Same(t, sk, a.Skeleton())

	assert.ErrorIs(t, a.Bind(nil, clip), animation.ErrAnimationMismatch)
	assert.Same(t, sk, a.Skeleton())
}

func TestUpdatePosesSkeleton(t *testing.T) {
	a := NewAnimated(1, false)
	require.NoError(t, a.Bind(armSkeleton(t), raiseClip(t, 3)))

	require.NoError(t, a.Update(0))
	require.Len(t, a.Palette(), 8)
	assert.True(t, wristPosition(a).ApproxEqual(math.Vec3{X: 4, Y: 1}, 1e-4), "rest pose, got %v", wristPosition(a))

	require.NoError(t, a.Update(5))
	assert.Equal(t, float32(2), a.Time(), "clamped at the end")
	assert.True(t, wristPosition(a).ApproxEqual(math.Vec3{Y: 5}, 1e-4), "raised, got %v", wristPosition(a))
}

func TestUpdateTimeAdvance(t *testing.T) {
	tests := []struct {
		name  string
		speed float32
		loop  bool
		steps []float32
		want  float32
	}{
		{"forward", 1, true, []float32{0.5, 0.25}, 0.75},
		{"speed scales dt", 2, true, []float32{0.5}, 1},
		{"wraps", 1, true, []float32{1.5, 1}, 0.5},
		{"wraps backwards", -1, true, []float32{0.5}, 1.5},
		{"clamps end", 1, false, []float32{1.5, 1}, 2},
		{"clamps start", -1, false, []float32{0.5}, 0},
		{"paused", 0, true, []float32{3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnimated(tt.speed, tt.loop)
			require.NoError(t, a.Bind(armSkeleton(t), raiseClip(t, 3)))
			for _, dt := range tt.steps {
				require.NoError(t, a.Update(dt))
			}
			assert.InDelta(t, tt.want, a.Time(), 1e-5)
		})
	}
}

func TestSetTimeAndReset(t *testing.T) {
	a := NewAnimated(1, true)
	require.NoError(t, a.Bind(armSkeleton(t), raiseClip(t, 3)))

	a.SetTime(5)
	assert.InDelta(t, 1, a.Time(), 1e-5)
	a.SetLoop(false)
	a.SetTime(5)
	assert.Equal(t, float32(2), a.Time())
	a.Reset()
	assert.Equal(t, float32(0), a.Time())

	a.SetSpeed(3)
	assert.Equal(t, float32(3), a.Speed())
	assert.False(t, a.Loop())
}

func TestUpdateWithoutClipHoldsBindPose(t *testing.T) {
	sk := armSkeleton(t)
	a := NewAnimated(1, true)
	require.NoError(t, a.Bind(sk, raiseClip(t, 3)))
	require.NoError(t, a.Update(2))

	require.NoError(t, a.SetAnimation(nil))
	require.NoError(t, a.Update(1))
	assert.True(t, wristPosition(a).ApproxEqual(math.Vec3{X: 4, Y: 1}, 1e-4))

	var unbound Animated
	assert.NoError(t, unbound.Update(1))
	assert.Nil(t, unbound.Palette())
}
