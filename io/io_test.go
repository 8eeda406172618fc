package io

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path"
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/YiZhangCUG/underworld2/geom"
	"github.com/YiZhangCUG/underworld2/mesh"
	"github.com/YiZhangCUG/underworld2/swarm"
)

func testMesh(t *testing.T) *mesh.Cartesian {
	t.Helper()
	m, err := mesh.NewCartesian([]int{8, 8}, geom.Vec{}, geom.Vec{1, 1, 0})
	if err != nil {
		t.Fatal(err.Error())
	}
	return m
}

func populatedSwarm(t *testing.T, m *mesh.Cartesian) *swarm.Swarm {
	t.Helper()
	s := swarm.New(m, false)
	err := swarm.Populate(s, &swarm.PerCellRandom{PerCell: 4, Seed: 99})
	if err != nil {
		t.Fatal(err.Error())
	}
	return s
}

func TestVariableRoundTripMaxima(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	table := []struct {
		name  string
		etype swarm.ElementType
		max   interface{}
	}{
		{"v8", swarm.Int8, int8(math.MaxInt8)},
		{"v16", swarm.Int16, int16(math.MaxInt16)},
		{"v32", swarm.Int32, int32(math.MaxInt32)},
		{"v64", swarm.Int64, int64(math.MaxInt64)},
		{"f32", swarm.Float32, float32(math.MaxFloat32)},
		{"f64", swarm.Float64, float64(math.MaxFloat64)},
	}

	for i, test := range table {
		v, err := s.AddVariable(test.name, test.etype, 1)
		if err != nil {
			t.Fatalf("%d) %s", i, err.Error())
		}
		if err := v.SetAll(test.max); err != nil {
			t.Fatalf("%d) %s", i, err.Error())
		}

		file := path.Join(dir, test.name+".var")
		if err := WriteVariable(file, v); err != nil {
			t.Fatalf("%d) %s", i, err.Error())
		}

		// Load into a freshly declared variable on a clone swarm with the
		// same particle count.
		s2 := populatedSwarm(t, m)
		v2, err := s2.AddVariable(test.name, test.etype, 1)
		if err != nil {
			t.Fatalf("%d) %s", i, err.Error())
		}
		if err := ReadVariable(file, v2); err != nil {
			t.Fatalf("%d) %s", i, err.Error())
		}

		if !reflect.DeepEqual(v.Data(), v2.Data()) {
			t.Errorf(
				"%d) %s round trip changed the data.", i, test.etype,
			)
		}
	}
}

func TestVariableRoundTripMultiComponent(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	v, err := s.AddVariable("vel", swarm.Float64, 3)
	if err != nil {
		t.Fatal(err.Error())
	}
	data := v.Float64s()
	for i := range data {
		data[i] = float64(i) * 0.25
	}

	file := path.Join(dir, "vel.var")
	assert.NoError(t, WriteVariable(file, v))

	s2 := populatedSwarm(t, m)
	v2, err := s2.AddVariable("vel", swarm.Float64, 3)
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.NoError(t, ReadVariable(file, v2))
	assert.Equal(t, v.Data(), v2.Data())
}

func TestSchemaMismatch(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	v, err := s.AddVariable("x", swarm.Float64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	file := path.Join(dir, "x.var")
	if err := WriteVariable(file, v); err != nil {
		t.Fatal(err.Error())
	}

	// Loading a float64/1-component file into an int32/1-component
	// variable must fail with a schema mismatch.
	s2 := populatedSwarm(t, m)
	v2, err := s2.AddVariable("x", swarm.Int32, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = ReadVariable(file, v2)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected SchemaMismatchError, got %v.", err)
	}
	if mismatch.Field != "element type" {
		t.Errorf("Expected an element type mismatch, got %q.", mismatch.Field)
	}

	// Same type but the wrong component count.
	v3, err := s2.AddVariable("y", swarm.Float64, 2)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = ReadVariable(file, v3)
	if !errors.As(err, &mismatch) || mismatch.Field != "component count" {
		t.Errorf("Expected a component count mismatch, got %v.", err)
	}

	// Same schema but the swarm has a different particle count.
	s3 := swarm.New(m, false)
	s3.AddParticlesWithCoordinates([]geom.Vec{{0.5, 0.5, 0}})
	v4, err := s3.AddVariable("x", swarm.Float64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = ReadVariable(file, v4)
	if !errors.As(err, &mismatch) || mismatch.Field != "particle count" {
		t.Errorf("Expected a particle count mismatch, got %v.", err)
	}
}

func TestSwarmRoundTrip(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	file := path.Join(dir, "s.swarm")
	if err := WriteSwarm(file, s); err != nil {
		t.Fatal(err.Error())
	}

	hd, err := ReadSwarmHeader(file)
	if err != nil {
		t.Fatal(err.Error())
	}
	if hd.Dim != 2 || hd.Count != int64(s.Count()) {
		t.Fatalf(
			"Expected header (2, %d), got (%d, %d).",
			s.Count(), hd.Dim, hd.Count,
		)
	}

	s2 := swarm.New(m, false)
	if err := ReadSwarm(file, s2); err != nil {
		t.Fatal(err.Error())
	}
	if !reflect.DeepEqual(s.Coords(), s2.Coords()) {
		t.Errorf("Round trip changed the particle coordinates.")
	}
}

func TestSwarmDimMismatch(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	file := path.Join(dir, "s.swarm")
	if err := WriteSwarm(file, s); err != nil {
		t.Fatal(err.Error())
	}

	m3, err := mesh.NewCartesian(
		[]int{4, 4, 4}, geom.Vec{}, geom.Vec{1, 1, 1},
	)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = ReadSwarm(file, swarm.New(m3, false))
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) || mismatch.Field != "dimension" {
		t.Errorf("Expected a dimension mismatch, got %v.", err)
	}
}

// Clone scenario: checkpoint a swarm and all its variables, rebuild from
// disk into a fresh swarm with matching declarations, and compare every
// array bit for bit.
func TestCloneSwarm(t *testing.T) {
	m := testMesh(t)
	dir := t.TempDir()

	s1 := populatedSwarm(t, m)
	decls := []struct {
		name  string
		etype swarm.ElementType
		max   interface{}
	}{
		{"v8", swarm.Int8, int8(math.MaxInt8)},
		{"v16", swarm.Int16, int16(math.MaxInt16)},
		{"v32", swarm.Int32, int32(math.MaxInt32)},
		{"v64", swarm.Int64, int64(math.MaxInt64)},
		{"f32", swarm.Float32, float32(math.MaxFloat32)},
		{"f64", swarm.Float64, float64(math.MaxFloat64)},
	}
	for _, d := range decls {
		v, err := s1.AddVariable(d.name, d.etype, 1)
		if err != nil {
			t.Fatal(err.Error())
		}
		if err := v.SetAll(d.max); err != nil {
			t.Fatal(err.Error())
		}
	}

	swarmFile := path.Join(dir, "s.swarm")
	assert.NoError(t, WriteSwarm(swarmFile, s1))
	for _, v := range s1.Variables() {
		file := path.Join(dir, v.Name()+".var")
		assert.NoError(t, WriteVariable(file, v))
	}

	// Fresh swarm with matching declarations, none populated. The swarm
	// must be loaded before its variables.
	s2 := swarm.New(m, false)
	for _, d := range decls {
		if _, err := s2.AddVariable(d.name, d.etype, 1); err != nil {
			t.Fatal(err.Error())
		}
	}
	assert.NoError(t, ReadSwarm(swarmFile, s2))
	for _, v := range s2.Variables() {
		file := path.Join(dir, v.Name()+".var")
		assert.NoError(t, ReadVariable(file, v))
	}

	assert.Equal(t, s1.Coords(), s2.Coords())
	for _, v1 := range s1.Variables() {
		v2 := s2.Variable(v1.Name())
		assert.Equal(t, v1.Data(), v2.Data(), v1.Name())
	}
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	file := path.Join(dir, "x.var")
	if err := os.WriteFile(file, []byte("stale junk"), 0666); err != nil {
		t.Fatal(err.Error())
	}

	v, err := s.AddVariable("x", swarm.Int16, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	v.SetAll(int16(math.MaxInt16))
	if err := WriteVariable(file, v); err != nil {
		t.Fatal(err.Error())
	}

	s2 := populatedSwarm(t, m)
	v2, err := s2.AddVariable("x", swarm.Int16, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	if err := ReadVariable(file, v2); err != nil {
		t.Fatal(err.Error())
	}
	if !reflect.DeepEqual(v.Data(), v2.Data()) {
		t.Errorf("Overwritten file did not round trip.")
	}
}

func TestReadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "junk.var")
	err := os.WriteFile(file, []byte("this is not a checkpoint"), 0666)
	if err != nil {
		t.Fatal(err.Error())
	}

	if _, err := ReadVariableHeader(file); err == nil {
		t.Errorf("Expected an error reading a corrupt file.")
	}
	if _, err := ReadSwarmHeader(file); err == nil {
		t.Errorf("Expected an error reading a corrupt file.")
	}
}

func TestWriteUnwritablePath(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	v, err := s.AddVariable("x", swarm.Float64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}

	bad := path.Join(t.TempDir(), "no", "such", "dir", "x.var")
	var perr *os.PathError
	if err := WriteVariable(bad, v); !errors.As(err, &perr) {
		t.Errorf("Expected a path error writing a variable, got %v.", err)
	}
	if err := WriteSwarm(bad, s); !errors.As(err, &perr) {
		t.Errorf("Expected a path error writing a swarm, got %v.", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	v, err := s.AddVariable("x", swarm.Float64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}

	missing := path.Join(t.TempDir(), "nope.var")
	if err := ReadVariable(missing, v); !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error, got %v.", err)
	}
}

func TestReadVariableData(t *testing.T) {
	m := testMesh(t)
	s := populatedSwarm(t, m)
	dir := t.TempDir()

	v, err := s.AddVariable("x", swarm.Int64, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	v.SetAll(int64(math.MaxInt64))

	file := path.Join(dir, "x.var")
	if err := WriteVariable(file, v); err != nil {
		t.Fatal(err.Error())
	}

	hd, data, err := ReadVariableData(file)
	if err != nil {
		t.Fatal(err.Error())
	}
	if hd.ElementType != int64(swarm.Int64) || hd.Components != 1 {
		t.Fatalf("Unexpected header %+v.", hd)
	}
	if !reflect.DeepEqual(data, v.Data()) {
		t.Errorf("ReadVariableData changed the data.")
	}
}

// A header that claims more stored values than the file holds, or a negative
// shape, must fail cleanly instead of allocating for the claimed size.
func TestReadVariableDataBadShape(t *testing.T) {
	dir := t.TempDir()

	table := []struct {
		name       string
		count      int64
		components int64
	}{
		{"negative.var", -1, 1},
		{"zerocomp.var", 4, 0},
		{"huge.var", math.MaxInt64 / 2, 2},
		{"truncated.var", 1 << 30, 1},
	}

	for i, test := range table {
		file := path.Join(dir, test.name)
		f, err := os.Create(file)
		if err != nil {
			t.Fatal(err.Error())
		}
		hd := VariableHeader{
			Kind:        int64(VariableFile),
			ElementType: int64(swarm.Int64),
			ElementSize: 8,
			Components:  test.components,
			Count:       test.count,
		}
		err = writeHeader(f, &hd, int32(unsafe.Sizeof(VariableHeader{})))
		f.Close()
		if err != nil {
			t.Fatal(err.Error())
		}

		if _, _, err := ReadVariableData(file); err == nil {
			t.Errorf("%d) Expected an error reading %s.", i, test.name)
		}
	}
}

// Files written on a big endian machine carry flag -1 and big endian blocks.
func TestReadBigEndianFile(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "be.var")
	values := []int64{1, math.MaxInt64, -7}

	f, err := os.Create(file)
	if err != nil {
		t.Fatal(err.Error())
	}
	end := binary.BigEndian
	hd := VariableHeader{
		Kind:        int64(VariableFile),
		ElementType: int64(swarm.Int64),
		ElementSize: 8,
		Components:  1,
		Count:       int64(len(values)),
	}
	// The flag's byte pattern is the same in either order.
	if err := binary.Write(f, end, int32(-1)); err != nil {
		t.Fatal(err.Error())
	}
	err = binary.Write(f, end, int32(unsafe.Sizeof(VariableHeader{})))
	if err != nil {
		t.Fatal(err.Error())
	}
	if err := binary.Write(f, end, &hd); err != nil {
		t.Fatal(err.Error())
	}
	if err := binary.Write(f, end, values); err != nil {
		t.Fatal(err.Error())
	}
	f.Close()

	hd2, data, err := ReadVariableData(file)
	if err != nil {
		t.Fatal(err.Error())
	}
	if hd2.Count != int64(len(values)) {
		t.Fatalf("Expected %d stored values, got %d.", len(values), hd2.Count)
	}
	if !reflect.DeepEqual(data, values) {
		t.Errorf("Expected %v, got %v.", values, data)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "shared.swarm")
	if err := os.WriteFile(file, []byte("x"), 0666); err != nil {
		t.Fatal(err.Error())
	}

	// Non-coordinators never touch shared files.
	if err := Cleanup(false, file); err != nil {
		t.Fatal(err.Error())
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("Non-coordinator cleanup removed the file.")
	}

	if err := Cleanup(true, file); err != nil {
		t.Fatal(err.Error())
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("Coordinator cleanup left the file behind.")
	}

	// Deleting an already missing file is not an error.
	if err := Cleanup(true, file); err != nil {
		t.Fatal(err.Error())
	}
}
