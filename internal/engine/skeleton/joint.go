// Package skeleton holds joint hierarchies, their bind pose and the
// per-frame animated pose read by the skinning renderer.
package skeleton

import (
	"fmt"
	"slices"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Pose is a decomposed local transform.
type Pose struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// Matrix composes the pose as T * R * S.
func (p Pose) Matrix() math.Mat4 {
	return math.Compose(p.Translation, p.Rotation, p.Scale)
}

// Joint is one node of a skeleton. A joint owns its children; there is no
// parent pointer and traversal is always top-down.
type Joint struct {
	Name string

	index    int
	children []*Joint
	built    bool // set by New; the tree shape is frozen from then on

	localBind   math.Mat4
	bindPose    Pose
	worldBind   math.Mat4
	inverseBind math.Mat4

	animatedLocal math.Mat4
	animatedWorld math.Mat4
}

// NewJoint creates a joint with the given local bind transform.
// The animated transforms start as identity.
func NewJoint(index int, name string, localBind math.Mat4) *Joint {
	t, r, s := localBind.Decompose()
	return &Joint{
		index:         index,
		Name:          name,
		localBind:     localBind,
		bindPose:      Pose{Translation: t, Rotation: r, Scale: s},
		worldBind:     math.Identity(),
		inverseBind:   math.Identity(),
		animatedLocal: math.Identity(),
		animatedWorld: math.Identity(),
	}
}

// AddChild appends a child. No cycle check is made; importers guarantee a tree.
// It panics once the joint belongs to a skeleton returned by New.
func (j *Joint) AddChild(child *Joint) {
	if j.built || child.built {
		panic(fmt.Sprintf("skeleton: AddChild %q to %q after the skeleton was built", child.Name, j.Name))
	}
	j.children = append(j.children, child)
}

// Index returns the joint's slot in the bone palette.
func (j *Joint) Index() int { return j.index }

// Children returns a copy of the child list.
func (j *Joint) Children() []*Joint { return slices.Clone(j.children) }

// LocalBindTransform returns the bind transform relative to the parent.
func (j *Joint) LocalBindTransform() math.Mat4 { return j.localBind }

// BindPose returns the local bind transform split into translation, rotation and scale.
func (j *Joint) BindPose() Pose { return j.bindPose }

// WorldBindTransform returns the accumulated bind transform.
func (j *Joint) WorldBindTransform() math.Mat4 { return j.worldBind }

// InverseBindTransform returns the inverse of the accumulated bind transform.
func (j *Joint) InverseBindTransform() math.Mat4 { return j.inverseBind }

// AnimatedLocalTransform returns the current animated transform relative to the parent.
func (j *Joint) AnimatedLocalTransform() math.Mat4 { return j.animatedLocal }

// AnimatedWorldTransform returns the current animated transform in model space.
func (j *Joint) AnimatedWorldTransform() math.Mat4 { return j.animatedWorld }

// SkinningTransform returns animatedWorld * inverseBind, the matrix that moves a
// bind-pose vertex to its animated position.
func (j *Joint) SkinningTransform() math.Mat4 {
	return j.animatedWorld.Mul(j.inverseBind)
}

// CalcBindPose accumulates parentWorldBind * localBind into this joint and
// its descendants and stores the inverse. Call it once on the root with the
// identity matrix after the whole tree is built; calling it on a child before
// its parent silently produces a wrong result.
func (j *Joint) CalcBindPose(parentWorldBind math.Mat4) {
	j.worldBind = parentWorldBind.Mul(j.localBind)
	j.inverseBind = j.worldBind.Inverse()
	for _, c := range j.children {
		c.CalcBindPose(j.worldBind)
	}
}

// CalcAnimatedTransformAndPose seeds the animated pose from the bind pose so an
// instance renders at rest before any clip is applied.
func (j *Joint) CalcAnimatedTransformAndPose(parentAnimated math.Mat4) {
	j.animatedLocal = j.localBind
	j.animatedWorld = parentAnimated.Mul(j.animatedLocal)
	for _, c := range j.children {
		c.CalcAnimatedTransformAndPose(j.animatedWorld)
	}
}

// LocalFunc supplies the animated local transform for a joint.
type LocalFunc func(j *Joint) math.Mat4

// ApplyLocal writes local(j) as the animated local transform of every joint
// in the subtree and propagates world transforms root-first. The accumulated
// parent transform is passed down explicitly.
func (j *Joint) ApplyLocal(parentAnimated math.Mat4, local LocalFunc) {
	j.animatedLocal = local(j)
	j.animatedWorld = parentAnimated.Mul(j.animatedLocal)
	for _, c := range j.children {
		c.ApplyLocal(j.animatedWorld, local)
	}
}

// clone deep-copies the subtree, including the current pose.
func (j *Joint) clone() *Joint {
	c := *j
	c.children = make([]*Joint, len(j.children))
	for i, child := range j.children {
		c.children[i] = child.clone()
	}
	return &c
}
