package skeleton

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/logger"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// MaxPaletteJoints is the mat4 array length of the skinning shader. No
// skeleton may ask for a larger palette.
const MaxPaletteJoints = 64

// DefaultMaxJoints is the bone palette size used when none is configured.
const DefaultMaxJoints = MaxPaletteJoints

// Skeleton construction errors.
var (
	ErrNoRoot              = errors.New("skeleton has no root joint")
	ErrMultipleRoots       = errors.New("skeleton has more than one root joint")
	ErrJointIndexRange     = errors.New("joint index out of range")
	ErrPaletteCapacity     = errors.New("bone palette larger than the skinning shader supports")
	ErrDuplicateJointIndex = errors.New("duplicate joint index")
	ErrDuplicateJointName  = errors.New("duplicate joint name")
	ErrJointRevisited      = errors.New("joint reachable more than once")
	ErrUnknownParent       = errors.New("unknown parent joint")
	ErrUnreachableJoint    = errors.New("joint not reachable from root")
)

// Skeleton is a validated joint tree with dense indices [0, JointCount).
type Skeleton struct {
	root      *Joint
	joints    []*Joint
	byName    map[string]int
	maxJoints int
}

// New validates the tree under root, computes its bind pose once and seeds
// the animated pose. Indices must be unique and cover [0, n) with n <= maxJoints.
func New(root *Joint, maxJoints int) (*Skeleton, error) {
	if root == nil {
		return nil, ErrNoRoot
	}
	if maxJoints <= 0 {
		maxJoints = DefaultMaxJoints
	}
	if maxJoints > MaxPaletteJoints {
		return nil, fmt.Errorf("%w: %d > %d", ErrPaletteCapacity, maxJoints, MaxPaletteJoints)
	}

	var all []*Joint
	seen := make(map[*Joint]bool)
	var visit func(j *Joint) error
	visit = func(j *Joint) error {
		if seen[j] {
			return fmt.Errorf("%w: %q", ErrJointRevisited, j.Name)
		}
		seen[j] = true
		all = append(all, j)
		for _, c := range j.children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}

	if len(all) > maxJoints {
		return nil, fmt.Errorf("%w: %d joints exceed limit %d", ErrJointIndexRange, len(all), maxJoints)
	}

	joints := make([]*Joint, len(all))
	byName := make(map[string]int, len(all))
	for _, j := range all {
		if j.index < 0 || j.index >= len(all) {
			return nil, fmt.Errorf("%w: joint %q has index %d, want [0,%d)", ErrJointIndexRange, j.Name, j.index, len(all))
		}
		if joints[j.index] != nil {
			return nil, fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateJointIndex, j.index, joints[j.index].Name, j.Name)
		}
		if _, dup := byName[j.Name]; dup && j.Name != "" {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateJointName, j.Name)
		}
		joints[j.index] = j
		if j.Name != "" {
			byName[j.Name] = j.index
		}
	}

	for _, j := range joints {
		j.built = true
	}

	root.CalcBindPose(math.Identity())
	root.CalcAnimatedTransformAndPose(math.Identity())

	logger.Named("skeleton").Debug("skeleton built",
		zap.String("root", root.Name),
		zap.Int("joints", len(joints)),
		zap.Int("maxJoints", maxJoints))

	return &Skeleton{
		root:      root,
		joints:    joints,
		byName:    byName,
		maxJoints: maxJoints,
	}, nil
}

// JointSpec describes a joint in a flat list. Parent is the index of the
// parent joint in the same list, or -1 for the root.
type JointSpec struct {
	Name      string
	Parent    int
	LocalBind math.Mat4
}

// Build assembles a skeleton from a flat joint list; list position becomes the joint index.
func Build(specs []JointSpec, maxJoints int) (*Skeleton, error) {
	joints := make([]*Joint, len(specs))
	for i, s := range specs {
		joints[i] = NewJoint(i, s.Name, s.LocalBind)
	}

	var root *Joint
	for i, s := range specs {
		switch {
		case s.Parent < 0:
			if root != nil {
				return nil, fmt.Errorf("%w: %q and %q", ErrMultipleRoots, root.Name, s.Name)
			}
			root = joints[i]
		case s.Parent >= len(specs) || s.Parent == i:
			return nil, fmt.Errorf("%w: joint %q references %d", ErrUnknownParent, s.Name, s.Parent)
		default:
			joints[s.Parent].AddChild(joints[i])
		}
	}
	if root == nil {
		return nil, ErrNoRoot
	}

	// Parent cycles detach joints from the root entirely.
	if n := countReachable(root); n != len(specs) {
		return nil, fmt.Errorf("%w: %d of %d joints reachable", ErrUnreachableJoint, n, len(specs))
	}
	return New(root, maxJoints)
}

func countReachable(root *Joint) int {
	seen := make(map[*Joint]bool)
	stack := []*Joint{root}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[j] {
			continue
		}
		seen[j] = true
		stack = append(stack, j.children...)
	}
	return len(seen)
}

// Root returns the root joint.
func (s *Skeleton) Root() *Joint { return s.root }

// JointCount returns the number of joints.
func (s *Skeleton) JointCount() int { return len(s.joints) }

// MaxJoints returns the bone palette capacity.
func (s *Skeleton) MaxJoints() int { return s.maxJoints }

// Joint returns the joint with the given index, or nil.
func (s *Skeleton) Joint(index int) *Joint {
	if index < 0 || index >= len(s.joints) {
		return nil
	}
	return s.joints[index]
}

// JointByName looks up a joint by name.
func (s *Skeleton) JointByName(name string) (*Joint, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.joints[idx], true
}

// IndexOf returns the joint index for a name, or -1.
func (s *Skeleton) IndexOf(name string) int {
	if idx, ok := s.byName[name]; ok {
		return idx
	}
	return -1
}

// Walk visits joints in pre-order; parent is nil for the root.
func (s *Skeleton) Walk(fn func(j, parent *Joint)) {
	var walk func(j, parent *Joint)
	walk = func(j, parent *Joint) {
		fn(j, parent)
		for _, c := range j.children {
			walk(c, j)
		}
	}
	walk(s.root, nil)
}

// ResetPose puts every joint back into its bind pose.
func (s *Skeleton) ResetPose() {
	s.root.CalcAnimatedTransformAndPose(math.Identity())
}

// Clone returns an independent instance sharing no joints with s.
// Bind data is copied as-is rather than recomputed.
func (s *Skeleton) Clone() *Skeleton {
	root := s.root.clone()
	c := &Skeleton{
		root:      root,
		joints:    make([]*Joint, len(s.joints)),
		byName:    make(map[string]int, len(s.byName)),
		maxJoints: s.maxJoints,
	}
	c.Walk(func(j, _ *Joint) {
		c.joints[j.index] = j
	})
	for k, v := range s.byName {
		c.byName[k] = v
	}
	return c
}
