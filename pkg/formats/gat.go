package formats

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
	ErrInvalidGATDimensions  = errors.New("invalid GAT dimensions")
)

const maxGATSide = 4096

// GATVersion represents the GAT file version.
type GATVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GATVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GATCell is one cell of the altitude table. Altitudes grow downward.
type GATCell struct {
	// Corner heights: [0] = -x-z, [1] = +x-z, [2] = -x+z, [3] = +x+z
	Heights [4]float32
	Type    uint32
}

// GAT is a parsed Ground Altitude Table.
type GAT struct {
	Version GATVersion
	Width   uint32
	Height  uint32
	Cells   []GATCell
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *GAT) GetCell(x, y int) *GATCell {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Cells[y*int(g.Width)+x]
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < 14 {
		return nil, ErrTruncatedGATData
	}
	if string(data[0:4]) != "GRAT" {
		return nil, ErrInvalidGATMagic
	}

	// Version is stored as [minor, major]; the cell layout is the same for 1.x to 3.x.
	version := GATVersion{Major: data[5], Minor: data[4]}
	if version.Major < 1 || version.Major > 3 {
		return nil, errors.Wrapf(ErrUnsupportedGATVersion, "%s", version)
	}

	br := newBinReader(data[6:], ErrTruncatedGATData)
	width, height := br.u32(), br.u32()
	if br.err != nil {
		return nil, br.err
	}
	if width == 0 || height == 0 || width > maxGATSide || height > maxGATSide {
		return nil, errors.Wrapf(ErrInvalidGATDimensions, "%dx%d", width, height)
	}

	gat := &GAT{
		Version: version,
		Width:   width,
		Height:  height,
		Cells:   make([]GATCell, int(width)*int(height)),
	}
	for i := range gat.Cells {
		br.read(&gat.Cells[i].Heights)
		gat.Cells[i].Type = br.u32()
		if br.err != nil {
			return nil, errors.WithMessagef(br.err, "parsing cell %d", i)
		}
	}

	return gat, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading GAT file")
	}
	return ParseGAT(data)
}

// CornerAltitudes returns a (Width+1) x (Height+1) grid of upward altitudes,
// indexed [x][z], averaging the cells that share each corner.
func (g *GAT) CornerAltitudes() [][]float32 {
	w, h := int(g.Width), int(g.Height)
	sum := make([][]float32, w+1)
	n := make([][]float32, w+1)
	for x := range sum {
		sum[x] = make([]float32, h+1)
		n[x] = make([]float32, h+1)
	}

	for z := range h {
		for x := range w {
			c := g.GetCell(x, z)
			for k, alt := range c.Heights {
				cx, cz := x+k&1, z+k>>1
				sum[cx][cz] -= alt
				n[cx][cz]++
			}
		}
	}

	for x := range sum {
		for z := range sum[x] {
			sum[x][z] /= n[x][z]
		}
	}
	return sum
}

// AltitudeRange returns the lowest and highest upward altitude.
func (g *GAT) AltitudeRange() (lo, hi float32) {
	if len(g.Cells) == 0 {
		return 0, 0
	}
	lo, hi = -g.Cells[0].Heights[0], -g.Cells[0].Heights[0]
	for _, cell := range g.Cells {
		for _, h := range cell.Heights {
			lo = min(lo, -h)
			hi = max(hi, -h)
		}
	}
	return lo, hi
}
