package formats

import (
	"fmt"
	stdmath "math"
	"os"

	"github.com/pkg/errors"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
)

// Upper bounds for counts read from the file.
const (
	maxRSMNodes    = 10000
	maxRSMElements = 100000
	maxRSMKeys     = 10000
	rsmNameLen     = 40
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || v.Major == major && v.Minor >= minor
}

// RSMPosKeyframe is a translation key. Frames are milliseconds.
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation key, quaternion x, y, z, w.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKeyframe is a scale key.
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one node of the model hierarchy. Geometry is counted but not
// kept; only the transform hierarchy and its keys matter for rigging.
type RSMNode struct {
	Name   string
	Parent string

	Matrix   [9]float32 // 3x3 mesh transform
	Offset   [3]float32 // mesh pivot
	Position [3]float32 // translation relative to the parent
	RotAngle float32    // radians
	RotAxis  [3]float32
	Scale    [3]float32

	VertexCount int
	FaceCount   int

	PosKeys   []RSMPosKeyframe   // v < 1.5
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe // v >= 1.5
}

// Animated reports whether the node has any keys.
func (n *RSMNode) Animated() bool {
	return len(n.PosKeys) > 0 || len(n.RotKeys) > 0 || len(n.ScaleKeys) > 0
}

// RSM is a parsed RSM (Resource Model) file, version 1.x.
type RSM struct {
	Version    RSMVersion
	AnimLength int32 // milliseconds
	Shading    int32
	Alpha      float32
	Textures   []string
	RootNode   string
	Nodes      []RSMNode
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 {
		return nil, errors.Wrapf(ErrUnsupportedRSMVersion, "%s", rsm.Version)
	}

	br := newBinReader(data[6:], ErrTruncatedRSMData)
	rsm.AnimLength = br.i32()
	rsm.Shading = br.i32()
	rsm.Alpha = 1
	if rsm.Version.AtLeast(1, 4) {
		var alpha uint8
		br.read(&alpha)
		rsm.Alpha = float32(alpha) / 255
	}
	br.skip(16) // reserved

	rsm.Textures = make([]string, br.count(maxRSMElements, "texture"))
	for i := range rsm.Textures {
		rsm.Textures[i] = br.str(rsmNameLen)
	}
	rsm.RootNode = br.str(rsmNameLen)

	nodeCount := br.i32()
	if br.err != nil {
		return nil, br.err
	}
	if nodeCount < 0 || nodeCount > maxRSMNodes {
		return nil, errors.Wrapf(ErrInvalidNodeCount, "%d", nodeCount)
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		parseRSMNode(br, rsm.Version, &rsm.Nodes[i])
		if br.err != nil {
			return nil, errors.WithMessagef(br.err, "parsing node %d", i)
		}
	}

	return rsm, nil
}

func parseRSMNode(br *binReader, version RSMVersion, node *RSMNode) {
	node.Name = br.str(rsmNameLen)
	node.Parent = br.str(rsmNameLen)

	br.skip(int64(br.count(maxRSMElements, "node texture")) * 4)

	br.read(&node.Matrix)
	node.Offset = br.vec3()
	node.Position = br.vec3()
	node.RotAngle = br.f32()
	node.RotAxis = br.vec3()
	node.Scale = br.vec3()

	node.VertexCount = br.count(maxRSMElements, "vertex")
	br.skip(int64(node.VertexCount) * 12)

	texCoordSize := int64(8)
	faceSize := int64(20)
	if version.AtLeast(1, 2) {
		texCoordSize += 4 // vertex colour
		faceSize += 4     // smoothing group
	}
	br.skip(int64(br.count(maxRSMElements, "texcoord")) * texCoordSize)
	node.FaceCount = br.count(maxRSMElements, "face")
	br.skip(int64(node.FaceCount) * faceSize)

	if !version.AtLeast(1, 5) {
		node.PosKeys = make([]RSMPosKeyframe, br.count(maxRSMKeys, "position key"))
		for i := range node.PosKeys {
			node.PosKeys[i].Frame = br.i32()
			node.PosKeys[i].Position = br.vec3()
		}
	}

	node.RotKeys = make([]RSMRotKeyframe, br.count(maxRSMKeys, "rotation key"))
	for i := range node.RotKeys {
		node.RotKeys[i].Frame = br.i32()
		br.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKeyframe, br.count(maxRSMKeys, "scale key"))
		for i := range node.ScaleKeys {
			node.ScaleKeys[i].Frame = br.i32()
			node.ScaleKeys[i].Scale = br.vec3()
		}
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading RSM file")
	}
	return ParseRSM(data)
}

// GetNodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) GetNodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// HasAnimation returns true if the model has any animation keyframes.
func (rsm *RSM) HasAnimation() bool {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Animated() {
			return true
		}
	}
	return false
}

// Rig converts the node hierarchy into a rig. Each node becomes a joint; a
// node whose parent is missing or itself is attached to the root node. Keys
// become one clip called name, timed in seconds.
func (rsm *RSM) Rig(name string) (*Rig, error) {
	root := rsm.GetNodeByName(rsm.RootNode)
	if root == nil {
		if len(rsm.Nodes) == 0 {
			return nil, ErrRigNoJoints
		}
		root = &rsm.Nodes[0]
	}

	rig := &Rig{Name: name, MaxJoints: len(rsm.Nodes)}
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		parent := n.Parent
		switch {
		case n == root:
			parent = ""
		case parent == "" || parent == n.Name || rsm.GetNodeByName(parent) == nil:
			parent = root.Name
		}

		rot := axisAngle(n.RotAxis, n.RotAngle)
		rig.Joints = append(rig.Joints, RigJoint{
			Name:        n.Name,
			Parent:      parent,
			Translation: []float32{n.Position[0], n.Position[1], n.Position[2]},
			Rotation:    rot[:],
			Scale:       []float32{n.Scale[0], n.Scale[1], n.Scale[2]},
		})
	}

	if rsm.HasAnimation() {
		rig.Animations = []RigAnimation{rsm.animation(name)}
	}

	if err := rig.Validate(); err != nil {
		return nil, err
	}
	return rig, nil
}

func (rsm *RSM) animation(name string) RigAnimation {
	const msPerSecond = 1000
	last := rsm.AnimLength
	channels := make(map[string]RigChannel)

	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if !n.Animated() {
			continue
		}
		var c RigChannel
		for _, k := range n.PosKeys {
			c.Translation = append(c.Translation, RigKey{Time: float32(k.Frame) / msPerSecond, Value: []float32{k.Position[0], k.Position[1], k.Position[2]}})
			last = max(last, k.Frame)
		}
		for _, k := range n.RotKeys {
			c.Rotation = append(c.Rotation, RigKey{Time: float32(k.Frame) / msPerSecond, Value: k.Quaternion[:]})
			last = max(last, k.Frame)
		}
		for _, k := range n.ScaleKeys {
			c.Scale = append(c.Scale, RigKey{Time: float32(k.Frame) / msPerSecond, Value: []float32{k.Scale[0], k.Scale[1], k.Scale[2]}})
			last = max(last, k.Frame)
		}
		channels[n.Name] = c
	}

	return RigAnimation{
		Name:     name,
		Duration: float32(last) / msPerSecond,
		Channels: channels,
	}
}

// axisAngle converts an axis-angle rotation to a quaternion x, y, z, w.
// A zero axis is treated as no rotation.
func axisAngle(axis [3]float32, angle float32) [4]float32 {
	l := stdmath.Sqrt(float64(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2]))
	if l < 1e-6 {
		return [4]float32{0, 0, 0, 1}
	}
	s := stdmath.Sin(float64(angle)/2) / l
	return [4]float32{
		float32(float64(axis[0]) * s),
		float32(float64(axis[1]) * s),
		float32(float64(axis[2]) * s),
		float32(stdmath.Cos(float64(angle) / 2)),
	}
}
