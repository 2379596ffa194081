package scene

import (
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// MaxPaletteSize matches the uBones array length in the skinned shader.
const MaxPaletteSize = skeleton.MaxPaletteJoints

// SkinnedVertex is a bind-space vertex influenced by up to four joints.
type SkinnedVertex struct {
	Position [3]float32
	Normal   [3]float32
	Joints   [4]uint32
	Weights  [4]float32
}

// SkinnedMesh holds skinned geometry ready for GPU upload.
type SkinnedMesh struct {
	Vertices []SkinnedVertex
	Indices  []uint32
}

// boneWidth is the diamond radius relative to bone length.
const boneWidth = 0.1

// BuildBoneMesh creates a diamond per parent-child pair, placed at the bind
// pose and rigidly bound to the parent joint, for visualising a skeleton.
func BuildBoneMesh(s *skeleton.Skeleton) SkinnedMesh {
	var mesh SkinnedMesh
	s.Walk(func(j, parent *skeleton.Joint) {
		if parent == nil {
			return
		}
		head := parent.WorldBindTransform().Translation()
		tail := j.WorldBindTransform().Translation()
		appendBone(&mesh, head, tail, uint32(parent.Index()))
	})
	return mesh
}

func appendBone(mesh *SkinnedMesh, head, tail math.Vec3, joint uint32) {
	axis := tail.Sub(head)
	length := axis.Length()
	if length < math.Epsilon {
		return
	}
	dir := axis.Scale(1 / length)

	// Any vector not parallel to dir gives a perpendicular frame.
	ref := math.Vec3{Y: 1}
	if d := dir.Dot(ref); d > 0.9 || d < -0.9 {
		ref = math.Vec3{X: 1}
	}
	u := dir.Cross(ref).Normalize().Scale(length * boneWidth)
	w := dir.Cross(u).Normalize().Scale(length * boneWidth)
	mid := head.Add(axis.Scale(0.2))

	ring := [4]math.Vec3{mid.Add(u), mid.Add(w), mid.Sub(u), mid.Sub(w)}
	base := uint32(len(mesh.Vertices))

	vertex := func(p, n math.Vec3) SkinnedVertex {
		return SkinnedVertex{
			Position: [3]float32{p.X, p.Y, p.Z},
			Normal:   [3]float32{n.X, n.Y, n.Z},
			Joints:   [4]uint32{joint, 0, 0, 0},
			Weights:  [4]float32{1, 0, 0, 0},
		}
	}

	mesh.Vertices = append(mesh.Vertices, vertex(head, dir.Scale(-1)), vertex(tail, dir))
	for _, r := range ring {
		mesh.Vertices = append(mesh.Vertices, vertex(r, r.Sub(mid).Normalize()))
	}

	for k := range uint32(4) {
		a := base + 2 + k
		b := base + 2 + (k+1)%4
		mesh.Indices = append(mesh.Indices, base, b, a, base+1, a, b)
	}
}

// SkinPosition applies linear blend skinning to one vertex on the CPU.
func SkinPosition(p skeleton.Palette, v SkinnedVertex) math.Vec3 {
	pos := math.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
	var out math.Vec3
	for i, w := range v.Weights {
		if w == 0 {
			continue
		}
		out = out.Add(p[v.Joints[i]].TransformPoint(pos).Scale(w))
	}
	return out
}
