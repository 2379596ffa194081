package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	stdmath "math"
	"testing"
)

type testRSMNode struct {
	name, parent string
	position     [3]float32
	rotAngle     float32
	rotAxis      [3]float32
	vertices     int
	faces        int
	posKeys      []RSMPosKeyframe
	rotKeys      []RSMRotKeyframe
	scaleKeys    []RSMScaleKeyframe
}

func writeName(buf *bytes.Buffer, s string) {
	name := make([]byte, 40)
	copy(name, s)
	buf.Write(name)
}

// makeRSM builds an RSM file of the given 1.x version.
func makeRSM(minor uint8, animLength int32, root string, nodes []testRSMNode) []byte {
	buf := new(bytes.Buffer)
	le := binary.LittleEndian
	buf.WriteString("GRSM")
	buf.WriteByte(1)
	buf.WriteByte(minor)
	binary.Write(buf, le, animLength)
	binary.Write(buf, le, int32(2)) // shading
	if minor >= 4 {
		buf.WriteByte(255)
	}
	buf.Write(make([]byte, 16))

	binary.Write(buf, le, int32(1))
	writeName(buf, "tex.bmp")
	writeName(buf, root)

	binary.Write(buf, le, int32(len(nodes)))
	for _, n := range nodes {
		writeName(buf, n.name)
		writeName(buf, n.parent)
		binary.Write(buf, le, int32(1))
		binary.Write(buf, le, int32(0))

		binary.Write(buf, le, [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
		binary.Write(buf, le, [3]float32{})
		binary.Write(buf, le, n.position)
		binary.Write(buf, le, n.rotAngle)
		binary.Write(buf, le, n.rotAxis)
		binary.Write(buf, le, [3]float32{1, 1, 1})

		binary.Write(buf, le, int32(n.vertices))
		buf.Write(make([]byte, 12*n.vertices))

		texSize, faceSize := 8, 20
		if minor >= 2 {
			texSize, faceSize = 12, 24
		}
		binary.Write(buf, le, int32(2))
		buf.Write(make([]byte, 2*texSize))
		binary.Write(buf, le, int32(n.faces))
		buf.Write(make([]byte, n.faces*faceSize))

		if minor < 5 {
			binary.Write(buf, le, int32(len(n.posKeys)))
			for _, k := range n.posKeys {
				binary.Write(buf, le, k.Frame)
				binary.Write(buf, le, k.Position)
			}
		}
		binary.Write(buf, le, int32(len(n.rotKeys)))
		for _, k := range n.rotKeys {
			binary.Write(buf, le, k.Frame)
			binary.Write(buf, le, k.Quaternion)
		}
		if minor >= 5 {
			binary.Write(buf, le, int32(len(n.scaleKeys)))
			for _, k := range n.scaleKeys {
				binary.Write(buf, le, k.Frame)
				binary.Write(buf, le, k.Scale)
			}
		}
	}
	return buf.Bytes()
}

func windmill(minor uint8) []byte {
	return makeRSM(minor, 2000, "base", []testRSMNode{
		{name: "base", vertices: 8, faces: 12},
		{
			name: "blades", parent: "base", position: [3]float32{0, 5, 1},
			rotAngle: stdmath.Pi / 2, rotAxis: [3]float32{0, 0, 2},
			vertices: 4, faces: 2,
			posKeys: []RSMPosKeyframe{{Frame: 0, Position: [3]float32{0, 5, 1}}},
			rotKeys: []RSMRotKeyframe{
				{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}},
				{Frame: 2500, Quaternion: [4]float32{0, 0, 1, 0}},
			},
			scaleKeys: []RSMScaleKeyframe{{Frame: 500, Scale: [3]float32{2, 2, 2}}},
		},
		{name: "vane", parent: "missing"},
	})
}

func TestParseRSM_Structure(t *testing.T) {
	for _, minor := range []uint8{1, 2, 3, 4, 5} {
		rsm, err := ParseRSM(windmill(minor))
		if err != nil {
			t.Fatalf("v1.%d: ParseRSM failed: %v", minor, err)
		}
		if len(rsm.Nodes) != 3 {
			t.Fatalf("v1.%d: expected 3 nodes, got %d", minor, len(rsm.Nodes))
		}
		if rsm.RootNode != "base" || rsm.Textures[0] != "tex.bmp" {
			t.Errorf("v1.%d: root %q textures %v", minor, rsm.RootNode, rsm.Textures)
		}

		blades := rsm.GetNodeByName("blades")
		if blades == nil {
			t.Fatalf("v1.%d: blades not found", minor)
		}
		if blades.VertexCount != 4 || blades.FaceCount != 2 {
			t.Errorf("v1.%d: counts %d/%d", minor, blades.VertexCount, blades.FaceCount)
		}
		if len(blades.RotKeys) != 2 || blades.RotKeys[1].Frame != 2500 {
			t.Errorf("v1.%d: rotation keys %+v", minor, blades.RotKeys)
		}
		if minor < 5 && len(blades.PosKeys) != 1 {
			t.Errorf("v1.%d: expected position keys", minor)
		}
		if minor >= 5 && len(blades.ScaleKeys) != 1 {
			t.Errorf("v1.%d: expected scale keys", minor)
		}

		wantAlpha := float32(1)
		if rsm.Alpha != wantAlpha {
			t.Errorf("v1.%d: alpha %v", minor, rsm.Alpha)
		}
	}
}

func TestParseRSM_Errors(t *testing.T) {
	valid := windmill(5)
	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 2

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedRSMData},
		{"bad magic", append([]byte("XXXX"), valid[4:]...), ErrInvalidRSMMagic},
		{"version 2", badVersion, ErrUnsupportedRSMVersion},
		{"truncated node", valid[:len(valid)-10], ErrTruncatedRSMData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSM(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRSMVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version RSMVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{RSMVersion{1, 5}, 1, 5, true},
		{RSMVersion{1, 5}, 1, 4, true},
		{RSMVersion{1, 5}, 1, 6, false},
		{RSMVersion{1, 5}, 2, 0, false},
		{RSMVersion{2, 3}, 1, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestRSM_Rig(t *testing.T) {
	rsm, err := ParseRSM(windmill(5))
	if err != nil {
		t.Fatalf("ParseRSM failed: %v", err)
	}
	rig, err := rsm.Rig("windmill")
	if err != nil {
		t.Fatalf("Rig failed: %v", err)
	}

	if len(rig.Joints) != 3 {
		t.Fatalf("expected 3 joints, got %d", len(rig.Joints))
	}
	if rig.Joints[0].Parent != "" {
		t.Errorf("root parent = %q", rig.Joints[0].Parent)
	}
	if rig.Joints[2].Parent != "base" {
		t.Errorf("orphan should attach to root, got %q", rig.Joints[2].Parent)
	}

	// 90 degrees about +Z; the axis is normalized.
	rot := rig.Joints[1].RotationOr()
	s := stdmath.Sqrt2 / 2
	if stdmath.Abs(float64(rot[2])-s) > 1e-6 || stdmath.Abs(float64(rot[3])-s) > 1e-6 {
		t.Errorf("rotation = %v, want (0, 0, %v, %v)", rot, s, s)
	}

	if len(rig.Animations) != 1 {
		t.Fatalf("expected one clip, got %d", len(rig.Animations))
	}
	clip := rig.Animations[0]
	if clip.Duration != 2.5 {
		t.Errorf("duration = %v, want 2.5 (last key beyond AnimLength)", clip.Duration)
	}
	ch, ok := clip.Channels["blades"]
	if !ok {
		t.Fatal("missing blades channel")
	}
	if len(ch.Rotation) != 2 || ch.Rotation[1].Time != 2.5 {
		t.Errorf("rotation keys = %+v", ch.Rotation)
	}
	if len(ch.Scale) != 1 || ch.Scale[0].Time != 0.5 {
		t.Errorf("scale keys = %+v", ch.Scale)
	}
	if _, ok := clip.Channels["base"]; ok {
		t.Error("unanimated node should have no channel")
	}
}
