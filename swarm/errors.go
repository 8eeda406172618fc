package swarm

import (
	"fmt"

	"github.com/YiZhangCUG/underworld2/geom"
)

// InvalidTypeError is returned when a variable is declared with an element
// type outside the supported fixed-width set.
type InvalidTypeError struct {
	Type string
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("Unrecognized element type %q.", e.Type)
}

// InvalidArityError is returned when a variable is declared with a
// non-positive component count.
type InvalidArityError struct {
	Components int
}

func (e InvalidArityError) Error() string {
	return fmt.Sprintf(
		"Component count must be positive, but is %d.", e.Components,
	)
}

// OutOfDomainError is returned by Evaluate when the requested point lies
// outside the region covered by the swarm's mesh.
type OutOfDomainError struct {
	Point geom.Vec
	Dim   int
}

func (e OutOfDomainError) Error() string {
	if e.Dim == 2 {
		return fmt.Sprintf(
			"Point (%g, %g) is outside the mesh domain.",
			e.Point[0], e.Point[1],
		)
	}
	return fmt.Sprintf(
		"Point (%g, %g, %g) is outside the mesh domain.",
		e.Point[0], e.Point[1], e.Point[2],
	)
}
