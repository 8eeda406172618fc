/*package swarm implements particle-like data structures over a background
mesh. A Swarm stores a set of spatially located particles along with any
number of typed per-particle variables. Variables resize in lockstep with
the swarm: adding or culling particles keeps every attached array at exactly
count * components elements.

Checkpointing lives in the io package; this package only owns the in-memory
contract.
*/
package swarm

import (
	"fmt"

	"github.com/YiZhangCUG/underworld2/geom"
)

// Mesh is the background discretization a swarm is defined over. The swarm
// only needs cell location, not shape functions, so meshes stay opaque
// beyond this surface.
type Mesh interface {
	Dim() int
	CellCount() int
	Contains(pt geom.Vec) bool
	FindCell(pt geom.Vec) (idx int, ok bool)
	CellBounds(idx int) (lo, hi geom.Vec)
}

// Swarm is an ordered, mutable collection of particles within a mesh domain.
type Swarm struct {
	mesh   Mesh
	escape bool

	coords []geom.Vec
	owners []int32

	vars   []*Variable
	byName map[string]*Variable
}

// New creates an empty swarm over the given mesh. If particleEscape is true,
// particles that leave the mesh domain during a Deform call are deleted
// rather than kept with no owning cell.
func New(mesh Mesh, particleEscape bool) *Swarm {
	return &Swarm{
		mesh:   mesh,
		escape: particleEscape,
		byName: make(map[string]*Variable),
	}
}

// Mesh returns the mesh the swarm is defined over.
func (s *Swarm) Mesh() Mesh { return s.mesh }

// Count returns the number of particles currently in the swarm.
func (s *Swarm) Count() int { return len(s.coords) }

// Coords returns the live slice of particle coordinates. Mutating it
// directly is only safe inside a Deform call.
func (s *Swarm) Coords() []geom.Vec { return s.coords }

// OwningCell returns the mesh cell particle i resides in, or -1 if the
// particle has escaped the domain and escape culling is disabled.
func (s *Swarm) OwningCell(i int) int { return int(s.owners[i]) }

// Variables returns the swarm's variables in declaration order.
func (s *Swarm) Variables() []*Variable { return s.vars }

// Variable returns the variable with the given name, or nil if none was
// declared.
func (s *Swarm) Variable(name string) *Variable { return s.byName[name] }

// AddVariable attaches a new per-particle variable to the swarm, zeroed and
// sized to the current particle count. It fails with InvalidTypeError for an
// unsupported element type and InvalidArityError for a non-positive
// component count.
func (s *Swarm) AddVariable(
	name string, etype ElementType, components int,
) (*Variable, error) {
	if !etype.valid() {
		return nil, InvalidTypeError{etype.String()}
	}
	if components <= 0 {
		return nil, InvalidArityError{components}
	}
	if _, ok := s.byName[name]; ok {
		return nil, fmt.Errorf(
			"Swarm already has a variable named '%s'.", name,
		)
	}

	v := &Variable{
		swarm:      s,
		name:       name,
		etype:      etype,
		components: components,
		data:       alloc(etype, s.Count()*components),
	}
	s.vars = append(s.vars, v)
	s.byName[name] = v
	return v, nil
}

// AddParticlesWithCoordinates appends particles at the given coordinates.
// Coordinates outside the mesh domain are rejected. The returned slice has
// one entry per input coordinate: the new particle's local index, or -1 for
// rejected coordinates. All attached variables are resized in lockstep, with
// new particles zero-filled.
func (s *Swarm) AddParticlesWithCoordinates(coords []geom.Vec) []int {
	idxs := make([]int, len(coords))
	for i, pt := range coords {
		cell, ok := s.mesh.FindCell(pt)
		if !ok {
			idxs[i] = -1
			continue
		}
		idxs[i] = len(s.coords)
		s.coords = append(s.coords, pt)
		s.owners = append(s.owners, int32(cell))
	}

	for _, v := range s.vars {
		v.resize(s.Count() * v.components)
	}
	return idxs
}

// Deform runs fn with write access to the particle coordinates, then updates
// particle owners. With escape enabled, particles moved outside the domain
// are culled before Deform returns.
func (s *Swarm) Deform(fn func(coords []geom.Vec)) {
	fn(s.coords)
	s.UpdateParticleOwners()
}

// UpdateParticleOwners recomputes which cell owns each particle. Particles
// found outside the mesh are deleted if the swarm was created with escape
// enabled, and are marked with owner -1 otherwise. Callers normally never
// need this directly: Deform invokes it.
func (s *Swarm) UpdateParticleOwners() {
	for i := 0; i < len(s.coords); i++ {
		cell, ok := s.mesh.FindCell(s.coords[i])
		if ok {
			s.owners[i] = int32(cell)
			continue
		}
		if !s.escape {
			s.owners[i] = -1
			continue
		}
		s.removeParticle(i)
		i--
	}

	if s.escape {
		for _, v := range s.vars {
			v.resize(s.Count() * v.components)
		}
	}
}

// removeParticle swap-deletes particle i. Variable stores are compacted in
// place but not shrunk; UpdateParticleOwners trims them once culling is done.
func (s *Swarm) removeParticle(i int) {
	last := len(s.coords) - 1
	s.coords[i] = s.coords[last]
	s.owners[i] = s.owners[last]
	s.coords = s.coords[:last]
	s.owners = s.owners[:last]

	for _, v := range s.vars {
		v.swapRemove(i, last)
	}
}
