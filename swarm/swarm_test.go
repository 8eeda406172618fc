package swarm

import (
	"reflect"
	"testing"

	"github.com/YiZhangCUG/underworld2/geom"
)

func TestAddParticlesWithCoordinates(t *testing.T) {
	s := New(testMesh(t), false)

	idxs := s.AddParticlesWithCoordinates([]geom.Vec{
		{0.1, 0.1, 0},
		{0.2, 0.1, 0},
		{0.1, 0.2, 0},
		{-0.1, -0.1, 0},
		{0.8, 0.8, 0},
	})

	// The out-of-domain coordinate is rejected with index -1, and the
	// particles after it keep compact indices.
	want := []int{0, 1, 2, -1, 3}
	if !reflect.DeepEqual(idxs, want) {
		t.Errorf("Expected indices %v, got %v.", want, idxs)
	}
	if s.Count() != 4 {
		t.Errorf("Expected 4 particles, got %d.", s.Count())
	}
}

func TestOwningCell(t *testing.T) {
	// 4x4 mesh over the unit square: cell width is 0.25.
	s := New(testMesh(t), false)
	s.AddParticlesWithCoordinates([]geom.Vec{
		{0.1, 0.1, 0},
		{0.3, 0.1, 0},
		{0.9, 0.9, 0},
	})

	table := []struct{ particle, cell int }{{0, 0}, {1, 1}, {2, 15}}
	for _, test := range table {
		if got := s.OwningCell(test.particle); got != test.cell {
			t.Errorf(
				"Expected particle %d in cell %d, got %d.",
				test.particle, test.cell, got,
			)
		}
	}
}

func TestDeformUpdatesOwners(t *testing.T) {
	s := New(testMesh(t), false)
	s.AddParticlesWithCoordinates([]geom.Vec{{0.1, 0.1, 0}})

	s.Deform(func(coords []geom.Vec) {
		coords[0] = geom.Vec{0.9, 0.9, 0}
	})

	if got := s.OwningCell(0); got != 15 {
		t.Errorf("Expected owner 15 after deformation, got %d.", got)
	}
}

func TestDeformWithoutEscapeKeepsParticles(t *testing.T) {
	s := New(testMesh(t), false)
	s.AddParticlesWithCoordinates([]geom.Vec{
		{0.1, 0.1, 0}, {0.6, 0.6, 0},
	})

	s.Deform(func(coords []geom.Vec) {
		coords[0][0] -= 0.5 // exits through the low x face
	})

	if s.Count() != 2 {
		t.Fatalf("Expected 2 particles, got %d.", s.Count())
	}
	if got := s.OwningCell(0); got != -1 {
		t.Errorf("Expected escaped particle to have owner -1, got %d.", got)
	}
}

func TestDeformWithEscapeCullsParticles(t *testing.T) {
	s := New(testMesh(t), true)
	s.AddParticlesWithCoordinates([]geom.Vec{
		{0.1, 0.1, 0}, {0.3, 0.3, 0}, {0.6, 0.6, 0}, {0.9, 0.9, 0},
	})

	v, err := s.AddVariable("id", Int64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	ids := v.Int64s()
	for i := range ids {
		ids[i] = int64(i)
	}

	// Shift everything by half the box: the upper half of the particles
	// leaves the domain.
	s.Deform(func(coords []geom.Vec) {
		for i := range coords {
			coords[i][0] += 0.5
			coords[i][1] += 0.5
		}
	})

	if s.Count() != 2 {
		t.Fatalf("Expected 2 surviving particles, got %d.", s.Count())
	}
	if v.Len() != 2 {
		t.Fatalf("Expected variable to shrink to 2 slots, got %d.", v.Len())
	}

	// Survivors keep their values, in some order.
	got := map[int64]bool{}
	for _, id := range v.Int64s() {
		got[id] = true
	}
	if !got[0] || !got[1] {
		t.Errorf("Expected ids 0 and 1 to survive, got %v.", v.Int64s())
	}

	// Coordinates and owners stayed consistent through the compaction.
	for i := 0; i < s.Count(); i++ {
		cell, ok := s.Mesh().FindCell(s.Coords()[i])
		if !ok || cell != s.OwningCell(i) {
			t.Errorf(
				"Particle %d at %v has owner %d, expected (%d, %v).",
				i, s.Coords()[i], s.OwningCell(i), cell, ok,
			)
		}
	}
}
