/*package mesh provides the Cartesian background discretization that swarms
are defined over. Only the cell-location surface needed by particle storage
is exposed here. Shape functions, field solves, and everything else a full
finite element mesh would do are out of scope.
*/
package mesh

import (
	"fmt"

	"github.com/YiZhangCUG/underworld2/geom"
)

// Cartesian is a regular axis-aligned mesh covering the box [Min, Max] with
// a fixed number of cells along each axis. Cells are indexed in x-major
// order: idx = ix + iy*resX + iz*resX*resY.
type Cartesian struct {
	dim       int
	res       [3]int
	min, max  geom.Vec
	cellWidth [3]float64
	cells     int
}

// NewCartesian creates a mesh with the given per-axis cell counts and
// bounding box. len(res) must be 2 or 3 and determines the dimensionality.
func NewCartesian(res []int, min, max geom.Vec) (*Cartesian, error) {
	if len(res) != 2 && len(res) != 3 {
		return nil, fmt.Errorf(
			"Meshes must be 2D or 3D, but %d resolutions were given.", len(res),
		)
	}

	m := &Cartesian{dim: len(res), min: min, max: max, cells: 1}
	for d := 0; d < m.dim; d++ {
		if res[d] <= 0 {
			return nil, fmt.Errorf(
				"Mesh resolution along axis %d is %d, but must be positive.",
				d, res[d],
			)
		}
		if max[d] <= min[d] {
			return nil, fmt.Errorf(
				"Mesh bounds along axis %d are [%g, %g], but the upper bound "+
					"must be larger.", d, min[d], max[d],
			)
		}

		m.res[d] = res[d]
		m.cellWidth[d] = (max[d] - min[d]) / float64(res[d])
		m.cells *= res[d]
	}

	return m, nil
}

// Dim returns the dimensionality of the mesh, either 2 or 3.
func (m *Cartesian) Dim() int { return m.dim }

// CellCount returns the total number of cells in the mesh.
func (m *Cartesian) CellCount() int { return m.cells }

// Min returns the lower corner of the mesh's bounding box.
func (m *Cartesian) Min() geom.Vec { return m.min }

// Max returns the upper corner of the mesh's bounding box.
func (m *Cartesian) Max() geom.Vec { return m.max }

// Contains returns true if pt is within the mesh's bounding box. Points on
// the boundary are inside.
func (m *Cartesian) Contains(pt geom.Vec) bool {
	for d := 0; d < m.dim; d++ {
		if pt[d] < m.min[d] || pt[d] > m.max[d] {
			return false
		}
	}
	return true
}

// FindCell returns the index of the cell containing pt. Points on the upper
// boundary belong to the last cell along that axis. ok is false if pt is
// outside the mesh.
func (m *Cartesian) FindCell(pt geom.Vec) (idx int, ok bool) {
	if !m.Contains(pt) {
		return -1, false
	}

	idx, stride := 0, 1
	for d := 0; d < m.dim; d++ {
		i := int((pt[d] - m.min[d]) / m.cellWidth[d])
		if i == m.res[d] {
			i--
		}
		idx += i * stride
		stride *= m.res[d]
	}

	return idx, true
}

// CellBounds returns the lower and upper corners of the given cell.
// CellBounds panics if idx is not a valid cell index.
func (m *Cartesian) CellBounds(idx int) (lo, hi geom.Vec) {
	if idx < 0 || idx >= m.cells {
		panic(fmt.Sprintf("Cell index %d out of range [0, %d).", idx, m.cells))
	}

	for d := 0; d < m.dim; d++ {
		i := idx % m.res[d]
		idx /= m.res[d]

		lo[d] = m.min[d] + float64(i)*m.cellWidth[d]
		hi[d] = lo[d] + m.cellWidth[d]
	}

	return lo, hi
}
