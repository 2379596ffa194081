package assets

import (
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-engine/internal/engine/animation"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/pkg/formats"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// ErrUnknownFormat is returned for files that are neither rigs nor RSM models.
var ErrUnknownFormat = errors.New("unknown rig format")

// DecodeRig parses a rig source, choosing the decoder by extension:
// .rsm models are converted, .yaml and .yml are read as rig documents.
// The rig name defaults to the file's base name.
func DecodeRig(name string, data []byte) (*formats.Rig, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(strings.TrimSuffix(base, path.Ext(base)), ".rig")

	switch ext {
	case ".rsm":
		model, err := formats.ParseRSM(data)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoding %s", name)
		}
		return model.Rig(stem)
	case ".yaml", ".yml":
		rig, err := formats.ParseRig(data)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoding %s", name)
		}
		if rig.Name == "" {
			rig.Name = stem
		}
		return rig, nil
	default:
		return nil, errors.Wrap(ErrUnknownFormat, name)
	}
}

// BuildSkeleton turns rig joints into a skeleton. Joint indices follow the
// rig's joint order. maxJoints overrides the rig's own limit when positive.
func BuildSkeleton(r *formats.Rig, maxJoints int) (*skeleton.Skeleton, error) {
	if maxJoints <= 0 {
		maxJoints = r.MaxJoints
	}

	specs := make([]skeleton.JointSpec, len(r.Joints))
	for i, j := range r.Joints {
		t, q, s := j.TranslationOr(), j.RotationOr(), j.ScaleOr()
		specs[i] = skeleton.JointSpec{
			Name:   j.Name,
			Parent: r.JointIndex(j.Parent),
			LocalBind: math.Compose(
				math.Vec3{X: t[0], Y: t[1], Z: t[2]},
				math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}.Normalize(),
				math.Vec3{X: s[0], Y: s[1], Z: s[2]},
			),
		}
	}

	sk, err := skeleton.Build(specs, maxJoints)
	if err != nil {
		return nil, errors.WithMessagef(err, "rig %q", r.Name)
	}
	return sk, nil
}

// BuildAnimations converts every rig clip into a channel list indexed by
// joint, so each clip fits any skeleton built from the same rig.
func BuildAnimations(r *formats.Rig) ([]*animation.Animation, error) {
	clips := make([]*animation.Animation, 0, len(r.Animations))
	for _, a := range r.Animations {
		channels := make([]animation.JointChannels, len(r.Joints))
		for joint, c := range a.Channels {
			i := r.JointIndex(joint)
			if i < 0 {
				return nil, errors.Wrapf(formats.ErrRigAnimation, "%q animates unknown joint %q", a.Name, joint)
			}
			channels[i] = animation.JointChannels{
				Translation: vec3Keys(c.Translation),
				Rotation:    quatKeys(c.Rotation),
				Scale:       vec3Keys(c.Scale),
			}
		}

		clip, err := animation.New(a.Name, a.Duration, channels)
		if err != nil {
			return nil, errors.WithMessagef(err, "rig %q", r.Name)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func vec3Keys(keys []formats.RigKey) animation.KeyFrameList[math.Vec3] {
	if len(keys) == 0 {
		return nil
	}
	out := make(animation.KeyFrameList[math.Vec3], len(keys))
	for i, k := range keys {
		out[i] = animation.KeyFrame[math.Vec3]{Time: k.Time, Value: math.Vec3{X: k.Value[0], Y: k.Value[1], Z: k.Value[2]}}
	}
	return out
}

func quatKeys(keys []formats.RigKey) animation.KeyFrameList[math.Quat] {
	if len(keys) == 0 {
		return nil
	}
	out := make(animation.KeyFrameList[math.Quat], len(keys))
	for i, k := range keys {
		out[i] = animation.KeyFrame[math.Quat]{Time: k.Time, Value: math.Quat{X: k.Value[0], Y: k.Value[1], Z: k.Value[2], W: k.Value[3]}}
	}
	return out
}
