package swarm

import (
	"fmt"
	"math/rand"

	"github.com/YiZhangCUG/underworld2/geom"
)

// Layout is a policy for placing the initial particles of a swarm.
type Layout interface {
	Populate(s *Swarm) error
}

// Populate fills the swarm with particles according to the given layout.
func Populate(s *Swarm, l Layout) error {
	return l.Populate(s)
}

// PerCellRandom places a fixed number of uniformly distributed particles in
// every mesh cell. The same seed always produces the same particle set.
type PerCellRandom struct {
	PerCell int
	Seed    int64
}

func (l *PerCellRandom) Populate(s *Swarm) error {
	if l.PerCell <= 0 {
		return fmt.Errorf(
			"PerCellRandom needs a positive particle count, but has %d.",
			l.PerCell,
		)
	}

	gen := rand.New(rand.NewSource(l.Seed))
	mesh := s.Mesh()
	dim := mesh.Dim()

	buf := make([]geom.Vec, l.PerCell)
	for c := 0; c < mesh.CellCount(); c++ {
		lo, hi := mesh.CellBounds(c)
		for i := range buf {
			buf[i] = geom.Vec{}
			for d := 0; d < dim; d++ {
				buf[i][d] = lo[d] + gen.Float64()*(hi[d]-lo[d])
			}
		}
		s.AddParticlesWithCoordinates(buf)
	}
	return nil
}

// Gauss-Legendre abscissae on [-1, 1].
var gaussAbscissae = [][]float64{
	1: {0},
	2: {-0.5773502691896257, 0.5773502691896257},
	3: {-0.7745966692414834, 0, 0.7745966692414834},
	4: {-0.8611363115940526, -0.3399810435848563,
		0.3399810435848563, 0.8611363115940526},
	5: {-0.9061798459386640, -0.5384693101056831, 0,
		0.5384693101056831, 0.9061798459386640},
}

// PerCellGauss places particles at the tensor product of 1D Gauss-Legendre
// abscissae within every mesh cell, PerDim points along each axis. A 2D mesh
// with PerDim = 2 gets 4 particles per cell.
type PerCellGauss struct {
	PerDim int
}

func (l *PerCellGauss) Populate(s *Swarm) error {
	if l.PerDim < 1 || l.PerDim >= len(gaussAbscissae) {
		return fmt.Errorf(
			"PerCellGauss supports 1 to %d points per dimension, but has %d.",
			len(gaussAbscissae)-1, l.PerDim,
		)
	}

	abs := gaussAbscissae[l.PerDim]
	mesh := s.Mesh()
	dim := mesh.Dim()

	perCell := 1
	for d := 0; d < dim; d++ {
		perCell *= l.PerDim
	}

	buf := make([]geom.Vec, perCell)
	for c := 0; c < mesh.CellCount(); c++ {
		lo, hi := mesh.CellBounds(c)
		for i := range buf {
			buf[i] = geom.Vec{}
			rem := i
			for d := 0; d < dim; d++ {
				a := abs[rem%l.PerDim]
				rem /= l.PerDim

				mid := (lo[d] + hi[d]) / 2
				half := (hi[d] - lo[d]) / 2
				buf[i][d] = mid + half*a
			}
		}
		s.AddParticlesWithCoordinates(buf)
	}
	return nil
}
