package formats

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const armRig = `
name: arm
max_joints: 16
joints:
  - name: shoulder
    translation: [0, 1, 0]
  - name: elbow
    parent: shoulder
    translation: [2, 0, 0]
    rotation: [0, 0, 0, 1]
  - name: wrist
    parent: elbow
    translation: [2, 0, 0]
    scale: [1, 1, 1]
animations:
  - name: wave
    duration: 1
    channels:
      elbow:
        rotation:
          - {time: 0, value: [0, 0, 0, 1]}
          - {time: 1, value: [0, 0, 0.7071068, 0.7071068]}
      wrist:
        translation:
          - {time: 0.5, value: [2, 0.5, 0]}
`

func TestParseRig(t *testing.T) {
	rig, err := ParseRig([]byte(armRig))
	if err != nil {
		t.Fatalf("ParseRig failed: %v", err)
	}
	if rig.Name != "arm" || rig.MaxJoints != 16 {
		t.Errorf("header = %q/%d", rig.Name, rig.MaxJoints)
	}
	if len(rig.Joints) != 3 {
		t.Fatalf("expected 3 joints, got %d", len(rig.Joints))
	}
	if got := rig.JointIndex("wrist"); got != 2 {
		t.Errorf("JointIndex(wrist) = %d", got)
	}
	if got := rig.JointIndex("tail"); got != -1 {
		t.Errorf("JointIndex(tail) = %d", got)
	}

	shoulder := rig.Joints[0]
	if shoulder.TranslationOr() != [3]float32{0, 1, 0} {
		t.Errorf("translation = %v", shoulder.TranslationOr())
	}
	if shoulder.RotationOr() != [4]float32{0, 0, 0, 1} {
		t.Errorf("default rotation = %v", shoulder.RotationOr())
	}
	if shoulder.ScaleOr() != [3]float32{1, 1, 1} {
		t.Errorf("default scale = %v", shoulder.ScaleOr())
	}

	wave := rig.Animations[0]
	if len(wave.Channels) != 2 || len(wave.Channels["elbow"].Rotation) != 2 {
		t.Errorf("channels = %+v", wave.Channels)
	}
}

func TestRigRoundTrip(t *testing.T) {
	rig, err := ParseRig([]byte(armRig))
	if err != nil {
		t.Fatalf("ParseRig failed: %v", err)
	}
	data, err := rig.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	again, err := ParseRig(data)
	if err != nil {
		t.Fatalf("ParseRig(marshalled) failed: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(rig, again) {
		t.Errorf("round trip changed rig:\n%+v\n%+v", rig, again)
	}
}

func TestRigValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no joints", "name: empty\n", ErrRigNoJoints},
		{"unnamed joint", "joints:\n  - translation: [0, 0, 0]\n", ErrRigJoint},
		{"duplicate", "joints:\n  - name: a\n  - name: a\n    parent: a\n", ErrRigJoint},
		{"two roots", "joints:\n  - name: a\n  - name: b\n", ErrRigJoint},
		{"unknown parent", "joints:\n  - name: a\n  - name: b\n    parent: c\n", ErrRigJoint},
		{"short translation", "joints:\n  - name: a\n    translation: [1, 2]\n", ErrRigJoint},
		{"unknown channel joint", "joints:\n  - name: a\nanimations:\n  - name: x\n    duration: 1\n    channels:\n      b: {}\n", ErrRigAnimation},
		{"bad key size", "joints:\n  - name: a\nanimations:\n  - name: x\n    duration: 1\n    channels:\n      a:\n        rotation:\n          - {time: 0, value: [0, 0, 1]}\n", ErrRigAnimation},
		{"negative duration", "joints:\n  - name: a\nanimations:\n  - name: x\n    duration: -1\n", ErrRigAnimation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRig([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadRig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arm.rig.yaml")
	if err := os.WriteFile(path, []byte(armRig), 0o644); err != nil {
		t.Fatal(err)
	}

	rig, err := LoadRig(path)
	if err != nil {
		t.Fatalf("LoadRig failed: %v", err)
	}
	if rig.Name != "arm" {
		t.Errorf("name = %q", rig.Name)
	}

	if _, err := LoadRig(filepath.Join(dir, "missing.rig.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if err := os.WriteFile(path, []byte("joints: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRig(path); err == nil {
		t.Error("expected decode error")
	}
}
