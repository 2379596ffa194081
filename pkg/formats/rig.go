package formats

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rig format errors.
var (
	ErrRigNoJoints  = errors.New("rig has no joints")
	ErrRigJoint     = errors.New("invalid rig joint")
	ErrRigAnimation = errors.New("invalid rig animation")
)

// Rig is a skeleton with its animation clips, stored as YAML (.rig.yaml).
// Joint indices follow the order of Joints.
type Rig struct {
	Name       string         `yaml:"name"`
	MaxJoints  int            `yaml:"max_joints,omitempty"`
	Joints     []RigJoint     `yaml:"joints"`
	Animations []RigAnimation `yaml:"animations,omitempty"`
}

// RigJoint is one joint and its bind-pose local transform.
type RigJoint struct {
	Name        string    `yaml:"name"`
	Parent      string    `yaml:"parent,omitempty"`
	Translation []float32 `yaml:"translation,flow,omitempty"`
	Rotation    []float32 `yaml:"rotation,flow,omitempty"` // quaternion x, y, z, w
	Scale       []float32 `yaml:"scale,flow,omitempty"`
}

// RigAnimation is one clip. Channels are keyed by joint name; joints without
// an entry keep their bind pose.
type RigAnimation struct {
	Name     string                `yaml:"name"`
	Duration float32               `yaml:"duration"`
	Channels map[string]RigChannel `yaml:"channels"`
}

// RigChannel holds the keys of one joint.
type RigChannel struct {
	Translation []RigKey `yaml:"translation,omitempty"`
	Rotation    []RigKey `yaml:"rotation,omitempty"`
	Scale       []RigKey `yaml:"scale,omitempty"`
}

// RigKey is one keyframe. Value has 3 components, or 4 for rotations.
type RigKey struct {
	Time  float32   `yaml:"time"`
	Value []float32 `yaml:"value,flow"`
}

// TranslationOr returns the joint translation, or zero when omitted.
func (j RigJoint) TranslationOr() [3]float32 {
	return vec3Or(j.Translation, [3]float32{})
}

// RotationOr returns the joint rotation, or identity when omitted.
func (j RigJoint) RotationOr() [4]float32 {
	if len(j.Rotation) != 4 {
		return [4]float32{0, 0, 0, 1}
	}
	return [4]float32{j.Rotation[0], j.Rotation[1], j.Rotation[2], j.Rotation[3]}
}

// ScaleOr returns the joint scale, or one when omitted.
func (j RigJoint) ScaleOr() [3]float32 {
	return vec3Or(j.Scale, [3]float32{1, 1, 1})
}

func vec3Or(v []float32, def [3]float32) [3]float32 {
	if len(v) != 3 {
		return def
	}
	return [3]float32{v[0], v[1], v[2]}
}

// ParseRig decodes and validates a rig document.
func ParseRig(data []byte) (*Rig, error) {
	var rig Rig
	if err := yaml.Unmarshal(data, &rig); err != nil {
		return nil, errors.Wrap(err, "decoding rig")
	}
	if err := rig.Validate(); err != nil {
		return nil, err
	}
	return &rig, nil
}

// LoadRig reads a rig file from disk.
func LoadRig(path string) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rig %s", path)
	}
	rig, err := ParseRig(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "rig %s", path)
	}
	return rig, nil
}

// Marshal encodes the rig as YAML.
func (r *Rig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encoding rig")
	}
	return data, nil
}

// JointIndex returns the index of a joint by name, or -1.
func (r *Rig) JointIndex(name string) int {
	for i, j := range r.Joints {
		if j.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks names, parent links, vector sizes and animation keys.
// Cycles are left to skeleton construction, which reports them precisely.
func (r *Rig) Validate() error {
	if len(r.Joints) == 0 {
		return ErrRigNoJoints
	}

	names := make(map[string]bool, len(r.Joints))
	roots := 0
	for i, j := range r.Joints {
		switch {
		case j.Name == "":
			return errors.Wrapf(ErrRigJoint, "joint %d has no name", i)
		case names[j.Name]:
			return errors.Wrapf(ErrRigJoint, "duplicate joint %q", j.Name)
		}
		names[j.Name] = true

		if err := checkLen(j.Translation, 3, "translation"); err != nil {
			return errors.Wrapf(err, "joint %q", j.Name)
		}
		if err := checkLen(j.Rotation, 4, "rotation"); err != nil {
			return errors.Wrapf(err, "joint %q", j.Name)
		}
		if err := checkLen(j.Scale, 3, "scale"); err != nil {
			return errors.Wrapf(err, "joint %q", j.Name)
		}
		if j.Parent == "" {
			roots++
		}
	}
	if roots != 1 {
		return errors.Wrapf(ErrRigJoint, "%d root joints, want 1", roots)
	}
	for _, j := range r.Joints {
		if j.Parent != "" && !names[j.Parent] {
			return errors.Wrapf(ErrRigJoint, "joint %q has unknown parent %q", j.Name, j.Parent)
		}
	}

	for _, a := range r.Animations {
		if err := a.validate(names); err != nil {
			return err
		}
	}
	return nil
}

func (a RigAnimation) validate(joints map[string]bool) error {
	if a.Name == "" {
		return errors.Wrap(ErrRigAnimation, "animation has no name")
	}
	if a.Duration < 0 {
		return errors.Wrapf(ErrRigAnimation, "%q has negative duration", a.Name)
	}
	for joint, c := range a.Channels {
		if !joints[joint] {
			return errors.Wrapf(ErrRigAnimation, "%q animates unknown joint %q", a.Name, joint)
		}
		for _, set := range []struct {
			name string
			keys []RigKey
			size int
		}{
			{"translation", c.Translation, 3},
			{"rotation", c.Rotation, 4},
			{"scale", c.Scale, 3},
		} {
			for k, key := range set.keys {
				if len(key.Value) != set.size {
					return errors.Wrapf(ErrRigAnimation, "%q joint %q %s key %d has %d values, want %d",
						a.Name, joint, set.name, k, len(key.Value), set.size)
				}
			}
		}
	}
	return nil
}

func checkLen(v []float32, want int, field string) error {
	if v != nil && len(v) != want {
		return errors.Wrap(ErrRigJoint, fmt.Sprintf("%s has %d values, want %d", field, len(v), want))
	}
	return nil
}
