package swarm

import (
	"fmt"
	"math"

	"github.com/YiZhangCUG/underworld2/geom"
)

// Evaluate returns the variable's value at a point in the mesh domain. The
// value of the particle nearest to pt is returned, preferring particles in
// pt's owning cell and falling back to a global search when that cell is
// empty. Nearest-particle lookup reproduces spatially uniform fields
// exactly: the stored value comes back untouched, with no arithmetic that
// could round a type maximum.
//
// 1-component variables yield the bare scalar; wider variables yield a copy
// of the component slice. Evaluate fails with OutOfDomainError if pt is
// outside the mesh.
func (v *Variable) Evaluate(pt geom.Vec) (interface{}, error) {
	s := v.swarm
	cell, ok := s.mesh.FindCell(pt)
	if !ok {
		return nil, OutOfDomainError{pt, s.mesh.Dim()}
	}
	if s.Count() == 0 {
		return nil, fmt.Errorf(
			"Cannot evaluate variable '%s' on an empty swarm.", v.name,
		)
	}

	dim := s.mesh.Dim()
	best, bestDist2 := -1, math.Inf(+1)
	for i := range s.coords {
		if int(s.owners[i]) != cell {
			continue
		}
		d2 := pt.Dist2(&s.coords[i], dim)
		if d2 < bestDist2 {
			best, bestDist2 = i, d2
		}
	}

	if best == -1 {
		// Owning cell holds no particles. Fall back to the whole swarm.
		for i := range s.coords {
			d2 := pt.Dist2(&s.coords[i], dim)
			if d2 < bestDist2 {
				best, bestDist2 = i, d2
			}
		}
	}

	return v.valueAt(best), nil
}
