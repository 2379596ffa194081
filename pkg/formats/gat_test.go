package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// createTestGAT creates a GAT file whose cell heights come from heights(x, z).
func createTestGAT(width, height uint32, heights func(x, z int) [4]float32) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("GRAT")
	buf.WriteByte(2) // minor
	buf.WriteByte(1) // major
	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, height)

	for z := 0; z < int(height); z++ {
		for x := 0; x < int(width); x++ {
			var h [4]float32
			if heights != nil {
				h = heights(x, z)
			}
			binary.Write(buf, binary.LittleEndian, h)
			binary.Write(buf, binary.LittleEndian, uint32(0))
		}
	}
	return buf.Bytes()
}

func TestParseGAT_ValidFile(t *testing.T) {
	gat, err := ParseGAT(createTestGAT(4, 3, nil))
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}
	if gat.Version.String() != "1.2" {
		t.Errorf("expected version 1.2, got %s", gat.Version)
	}
	if gat.Width != 4 || gat.Height != 3 {
		t.Errorf("expected 4x3, got %dx%d", gat.Width, gat.Height)
	}
	if len(gat.Cells) != 12 {
		t.Errorf("expected 12 cells, got %d", len(gat.Cells))
	}
	if gat.GetCell(4, 0) != nil || gat.GetCell(0, -1) != nil {
		t.Error("expected nil for out of range cells")
	}
}

func TestParseGAT_Errors(t *testing.T) {
	valid := createTestGAT(2, 2, nil)

	badMagic := append([]byte("XXXX"), valid[4:]...)
	badVersion := append([]byte(nil), valid...)
	badVersion[5] = 9
	zeroWidth := createTestGAT(0, 2, nil)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedGATData},
		{"bad magic", badMagic, ErrInvalidGATMagic},
		{"bad version", badVersion, ErrUnsupportedGATVersion},
		{"zero width", zeroWidth, ErrInvalidGATDimensions},
		{"truncated cells", valid[:len(valid)-3], ErrTruncatedGATData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGAT(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGAT_CornerAltitudes(t *testing.T) {
	// Altitudes are stored negated; corner height is -(x + 10z) everywhere so
	// shared corners agree and averaging is exact.
	data := createTestGAT(2, 2, func(x, z int) [4]float32 {
		corner := func(cx, cz int) float32 { return -float32(cx + 10*cz) }
		return [4]float32{corner(x, z), corner(x+1, z), corner(x, z+1), corner(x+1, z+1)}
	})
	gat, err := ParseGAT(data)
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}

	alt := gat.CornerAltitudes()
	if len(alt) != 3 || len(alt[0]) != 3 {
		t.Fatalf("expected 3x3 corners, got %dx%d", len(alt), len(alt[0]))
	}
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			if want := float32(x + 10*z); alt[x][z] != want {
				t.Errorf("corner (%d,%d) = %v, want %v", x, z, alt[x][z], want)
			}
		}
	}

	lo, hi := gat.AltitudeRange()
	if lo != 0 || hi != 22 {
		t.Errorf("AltitudeRange() = %v, %v, want 0, 22", lo, hi)
	}
}
