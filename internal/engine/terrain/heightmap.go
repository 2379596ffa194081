package terrain

import (
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Heightmap stores terrain altitude samples on a regular grid.
type Heightmap struct {
	Altitudes [][]float32 // [x][z] samples at grid corners
	SamplesX  int
	SamplesZ  int
	CellSize  float32
	Origin    math.Vec2
}

// NewHeightmap samples fn at every grid corner. Both sample counts must be at
// least 2 to form a cell.
func NewHeightmap(samplesX, samplesZ int, cellSize float32, origin math.Vec2, fn func(x, z float32) float32) *Heightmap {
	samplesX = max(samplesX, 2)
	samplesZ = max(samplesZ, 2)

	altitudes := make([][]float32, samplesX)
	for x := range samplesX {
		altitudes[x] = make([]float32, samplesZ)
		for z := range samplesZ {
			wx := origin.X + float32(x)*cellSize
			wz := origin.Y + float32(z)*cellSize
			altitudes[x][z] = fn(wx, wz)
		}
	}

	return &Heightmap{
		Altitudes: altitudes,
		SamplesX:  samplesX,
		SamplesZ:  samplesZ,
		CellSize:  cellSize,
		Origin:    origin,
	}
}

// Height returns the bilinearly interpolated altitude at a world position.
// Positions outside the grid are clamped to its border. A nil heightmap is flat.
func (h *Heightmap) Height(worldX, worldZ float32) float32 {
	if h == nil || h.CellSize <= 0 {
		return 0
	}

	cellFX := (worldX - h.Origin.X) / h.CellSize
	cellFZ := (worldZ - h.Origin.Y) / h.CellSize

	cellX := clampi(int(cellFX), 0, h.SamplesX-2)
	cellZ := clampi(int(cellFZ), 0, h.SamplesZ-2)

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracZ := clampf(cellFZ-float32(cellZ), 0, 1)

	a := h.Altitudes
	near := a[cellX][cellZ]*(1-fracX) + a[cellX+1][cellZ]*fracX
	far := a[cellX][cellZ+1]*(1-fracX) + a[cellX+1][cellZ+1]*fracX
	return near*(1-fracZ) + far*fracZ
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
