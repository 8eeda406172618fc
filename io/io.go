/*package io reads and writes swarm checkpoint files.

The binary format mirrors the layout used for snapshot fragments:

    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --|

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a
        little endian byte ordering and -1 indicates a big endian byte order.
    2 - (int32) Size of the header struct. Checked for consistency on read.
    3 - (SwarmHeader or VariableHeader) Meta-information describing the
        stored data.
    4 - For swarm files, a contiguous block of [3]float64 particle
        coordinates. For variable files, the contiguous per-particle values
        in the declared fixed-width element type.

Files of any endianness can be read; files are always written little endian.
Writes overwrite whatever is at the target path. A failed write may leave a
truncated file behind: callers that need atomicity should write to a
temporary path and rename.
*/
package io

import (
	"encoding/binary"
	"fmt"
	"os"

	"unsafe"

	"github.com/YiZhangCUG/underworld2/geom"
	"github.com/YiZhangCUG/underworld2/swarm"
)

// FileKind distinguishes the two checkpoint file flavors.
type FileKind int64

const (
	SwarmFile FileKind = iota
	VariableFile
)

func (k FileKind) String() string {
	switch k {
	case SwarmFile:
		return "swarm"
	case VariableFile:
		return "variable"
	}
	return fmt.Sprintf("FileKind(%d)", int64(k))
}

// Particles are replayed through AddParticlesWithCoordinates in chunks of
// this many coordinates when loading a swarm.
const loadChunkLen = 1 << 12

// SwarmHeader describes a stored particle coordinate block.
type SwarmHeader struct {
	Kind  int64
	Dim   int64
	Count int64
}

// VariableHeader describes a stored per-particle value block. ElementType
// holds the numeric tag of the swarm.ElementType, ElementSize its width in
// bytes.
type VariableHeader struct {
	Kind        int64
	ElementType int64
	ElementSize int64
	Components  int64
	Count       int64
}

// SchemaMismatchError is returned when a checkpoint file's metadata
// disagrees with the target object it is being loaded into.
type SchemaMismatchError struct {
	File  string
	Field string
	Want  int64
	Got   int64
}

func (e SchemaMismatchError) Error() string {
	return fmt.Sprintf(
		"File %s stores %s = %d, but the load target expects %d.",
		e.File, e.Field, e.Got, e.Want,
	)
}

// endianness converts an endianness flag into a byte order.
func endianness(flag int32) (binary.ByteOrder, error) {
	switch flag {
	case 0:
		return binary.LittleEndian, nil
	case -1:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("Unrecognized endianness flag %d.", flag)
}

// writeHeader writes blocks 1 through 3 of a checkpoint file.
func writeHeader(f *os.File, hd interface{}, hdSize int32) error {
	end := binary.LittleEndian
	if err := binary.Write(f, end, int32(0)); err != nil {
		return err
	}
	if err := binary.Write(f, end, hdSize); err != nil {
		return err
	}
	return binary.Write(f, end, hd)
}

// readPrefix reads blocks 1 and 2 and validates the header size against the
// expected struct. The returned file is positioned at the start of block 3.
func readPrefix(
	file string, wantSize int32,
) (*os.File, binary.ByteOrder, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}

	var flag, hdSize int32
	// Order doesn't matter for this read, since flags are symmetric.
	if err := binary.Read(f, binary.LittleEndian, &flag); err != nil {
		f.Close()
		return nil, nil, err
	}
	order, err := endianness(flag)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("File %s is corrupted: %s", file, err)
	}
	if err := binary.Read(f, order, &hdSize); err != nil {
		f.Close()
		return nil, nil, err
	}
	if hdSize != wantSize {
		f.Close()
		return nil, nil, fmt.Errorf(
			"File %s has a header of %d bytes, but %d were expected. It is "+
				"corrupted or not a %s file.",
			file, hdSize, wantSize, kindForSize(wantSize),
		)
	}

	return f, order, nil
}

func kindForSize(hdSize int32) FileKind {
	if hdSize == int32(unsafe.Sizeof(SwarmHeader{})) {
		return SwarmFile
	}
	return VariableFile
}

// WriteSwarm saves the swarm's particle coordinates to file, replacing any
// existing file at that path.
func WriteSwarm(file string, s *swarm.Swarm) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	hd := SwarmHeader{
		Kind:  int64(SwarmFile),
		Dim:   int64(s.Mesh().Dim()),
		Count: int64(s.Count()),
	}
	err = writeHeader(f, &hd, int32(unsafe.Sizeof(SwarmHeader{})))
	if err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, s.Coords())
}

// ReadSwarmHeader reads the header of a swarm checkpoint file.
func ReadSwarmHeader(file string) (*SwarmHeader, error) {
	f, order, err := readPrefix(file, int32(unsafe.Sizeof(SwarmHeader{})))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hd := &SwarmHeader{}
	if err := binary.Read(f, order, hd); err != nil {
		return nil, err
	}
	if hd.Kind != int64(SwarmFile) {
		return nil, fmt.Errorf("File %s is not a swarm file.", file)
	}
	return hd, nil
}

// ReadSwarm loads particle coordinates from file into an already constructed
// swarm. Coordinates are replayed through AddParticlesWithCoordinates in
// bounded chunks, so coordinates outside the target mesh's domain are
// silently dropped, matching add-time behavior. Loading a swarm must happen
// before loading any of its variables; that ordering is the caller's
// responsibility.
func ReadSwarm(file string, s *swarm.Swarm) error {
	f, order, err := readPrefix(file, int32(unsafe.Sizeof(SwarmHeader{})))
	if err != nil {
		return err
	}
	defer f.Close()

	hd := &SwarmHeader{}
	if err := binary.Read(f, order, hd); err != nil {
		return err
	}
	if hd.Kind != int64(SwarmFile) {
		return fmt.Errorf("File %s is not a swarm file.", file)
	}
	if hd.Dim != int64(s.Mesh().Dim()) {
		return SchemaMismatchError{
			File: file, Field: "dimension",
			Want: int64(s.Mesh().Dim()), Got: hd.Dim,
		}
	}

	buf := make([]geom.Vec, loadChunkLen)
	for read := int64(0); read < hd.Count; {
		n := hd.Count - read
		if n > loadChunkLen {
			n = loadChunkLen
		}
		if err := binary.Read(f, order, buf[:n]); err != nil {
			return err
		}
		s.AddParticlesWithCoordinates(buf[:n])
		read += n
	}
	return nil
}

// WriteVariable saves one variable's per-particle values to file, replacing
// any existing file at that path.
func WriteVariable(file string, v *swarm.Variable) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	hd := VariableHeader{
		Kind:        int64(VariableFile),
		ElementType: int64(v.Type()),
		ElementSize: int64(v.Type().Size()),
		Components:  int64(v.Components()),
		Count:       int64(v.Swarm().Count()),
	}
	err = writeHeader(f, &hd, int32(unsafe.Sizeof(VariableHeader{})))
	if err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, v.Data())
}

// ReadVariableHeader reads the header of a variable checkpoint file.
func ReadVariableHeader(file string) (*VariableHeader, error) {
	f, order, err := readPrefix(file, int32(unsafe.Sizeof(VariableHeader{})))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hd := &VariableHeader{}
	if err := binary.Read(f, order, hd); err != nil {
		return nil, err
	}
	if hd.Kind != int64(VariableFile) {
		return nil, fmt.Errorf("File %s is not a variable file.", file)
	}
	return hd, nil
}

// ReadVariable loads stored values from file into an already declared
// variable. The file's element type, component count and particle count must
// all agree with the target; any disagreement fails with
// SchemaMismatchError. The swarm itself must have been loaded first.
func ReadVariable(file string, v *swarm.Variable) error {
	f, order, err := readPrefix(file, int32(unsafe.Sizeof(VariableHeader{})))
	if err != nil {
		return err
	}
	defer f.Close()

	hd := &VariableHeader{}
	if err := binary.Read(f, order, hd); err != nil {
		return err
	}
	if hd.Kind != int64(VariableFile) {
		return fmt.Errorf("File %s is not a variable file.", file)
	}

	switch {
	case hd.ElementType != int64(v.Type()):
		return SchemaMismatchError{
			File: file, Field: "element type",
			Want: int64(v.Type()), Got: hd.ElementType,
		}
	case hd.ElementSize != int64(v.Type().Size()):
		return SchemaMismatchError{
			File: file, Field: "element size",
			Want: int64(v.Type().Size()), Got: hd.ElementSize,
		}
	case hd.Components != int64(v.Components()):
		return SchemaMismatchError{
			File: file, Field: "component count",
			Want: int64(v.Components()), Got: hd.Components,
		}
	case hd.Count != int64(v.Swarm().Count()):
		return SchemaMismatchError{
			File: file, Field: "particle count",
			Want: int64(v.Swarm().Count()), Got: hd.Count,
		}
	}

	return binary.Read(f, order, v.Data())
}

// ReadVariableData reads a variable file without a target swarm, returning
// its header and a freshly allocated typed slice of the stored values. Used
// by tooling that inspects checkpoints directly.
func ReadVariableData(file string) (*VariableHeader, interface{}, error) {
	f, order, err := readPrefix(file, int32(unsafe.Sizeof(VariableHeader{})))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	hd := &VariableHeader{}
	if err := binary.Read(f, order, hd); err != nil {
		return nil, nil, err
	}
	if hd.Kind != int64(VariableFile) {
		return nil, nil, fmt.Errorf("File %s is not a variable file.", file)
	}
	if hd.Count < 0 || hd.Components <= 0 || hd.ElementSize <= 0 {
		return nil, nil, fmt.Errorf(
			"File %s stores an invalid shape: %d values of %d components "+
				"and %d bytes each.",
			file, hd.Count, hd.Components, hd.ElementSize,
		)
	}
	// The payload must fit in the file. This also rejects counts large
	// enough to blow up the allocation below.
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	payload := fi.Size() - int64(8) - int64(unsafe.Sizeof(VariableHeader{}))
	if payload < 0 || hd.Count > payload/hd.ElementSize/hd.Components {
		return nil, nil, fmt.Errorf(
			"File %s is truncated: it claims %d values of %d components, "+
				"but is only %d bytes long.",
			file, hd.Count, hd.Components, fi.Size(),
		)
	}

	n := int(hd.Count * hd.Components)
	var data interface{}
	switch swarm.ElementType(hd.ElementType) {
	case swarm.Int8:
		data = make([]int8, n)
	case swarm.Int16:
		data = make([]int16, n)
	case swarm.Int32:
		data = make([]int32, n)
	case swarm.Int64:
		data = make([]int64, n)
	case swarm.Float32:
		data = make([]float32, n)
	case swarm.Float64:
		data = make([]float64, n)
	default:
		return nil, nil, fmt.Errorf(
			"File %s stores unrecognized element type tag %d.",
			file, hd.ElementType,
		)
	}

	if err := binary.Read(f, order, data); err != nil {
		return nil, nil, err
	}
	return hd, data, nil
}

// Cleanup deletes shared checkpoint files, but only on the coordinating
// worker. Exactly one cooperating worker should be designated coordinator so
// that teardown of shared paths never races. Missing files are not an error.
func Cleanup(isCoordinator bool, files ...string) error {
	if !isCoordinator {
		return nil
	}
	for _, file := range files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
