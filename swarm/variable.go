package swarm

import (
	"fmt"
)

// ElementType identifies the fixed-width numeric type of a variable's
// per-particle slots. The numeric values of these tags are part of the
// checkpoint file format and must not be reordered.
type ElementType int32

const (
	Int8 ElementType = iota
	Int16
	Int32
	Int64
	Float32
	Float64
)

var elementTypeNames = []string{
	"int8", "int16", "int32", "int64", "float32", "float64",
}

// Legacy C-style aliases accepted by ParseElementType. Older configs named
// types char/short/int/long/float/double and relied on platform width
// conventions. They are pinned to fixed widths here.
var elementTypeAliases = map[string]ElementType{
	"char": Int8, "short": Int16, "int": Int32,
	"long": Int64, "float": Float32, "double": Float64,
}

func (t ElementType) valid() bool {
	return t >= Int8 && t <= Float64
}

func (t ElementType) String() string {
	if !t.valid() {
		return fmt.Sprintf("ElementType(%d)", int32(t))
	}
	return elementTypeNames[t]
}

// Size returns the width of the type in bytes.
func (t ElementType) Size() int {
	switch t {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	}
	panic(fmt.Sprintf("Impossible element type %d.", int32(t)))
}

// ParseElementType converts a type name to its ElementType tag. Both the
// fixed-width names (int8 ... float64) and the legacy C aliases
// (char ... double) are accepted.
func ParseElementType(name string) (ElementType, error) {
	for i, n := range elementTypeNames {
		if n == name {
			return ElementType(i), nil
		}
	}
	if t, ok := elementTypeAliases[name]; ok {
		return t, nil
	}
	return -1, InvalidTypeError{name}
}

// Variable is a named per-particle array attached to a swarm. Its backing
// store always holds exactly swarm.Count() * Components() elements of the
// declared type, and is resized in lockstep when particles are added to or
// removed from the swarm.
type Variable struct {
	swarm      *Swarm
	name       string
	etype      ElementType
	components int
	// One of []int8, []int16, []int32, []int64, []float32, []float64.
	data interface{}
}

// Name returns the name the variable was declared with.
func (v *Variable) Name() string { return v.name }

// Type returns the variable's element type.
func (v *Variable) Type() ElementType { return v.etype }

// Components returns the number of scalar slots per particle.
func (v *Variable) Components() int { return v.components }

// Swarm returns the swarm the variable is attached to.
func (v *Variable) Swarm() *Swarm { return v.swarm }

// Len returns the current length of the backing store,
// swarm.Count() * Components().
func (v *Variable) Len() int {
	switch d := v.data.(type) {
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	}
	panic("Impossible element type.")
}

// Data returns the typed backing slice as one of []int8, []int16, []int32,
// []int64, []float32 or []float64. The slice is live: writes through it
// mutate the variable.
func (v *Variable) Data() interface{} { return v.data }

// Int8s returns the backing slice of an Int8 variable and nil otherwise.
func (v *Variable) Int8s() []int8 { d, _ := v.data.([]int8); return d }

// Int16s returns the backing slice of an Int16 variable and nil otherwise.
func (v *Variable) Int16s() []int16 { d, _ := v.data.([]int16); return d }

// Int32s returns the backing slice of an Int32 variable and nil otherwise.
func (v *Variable) Int32s() []int32 { d, _ := v.data.([]int32); return d }

// Int64s returns the backing slice of an Int64 variable and nil otherwise.
func (v *Variable) Int64s() []int64 { d, _ := v.data.([]int64); return d }

// Float32s returns the backing slice of a Float32 variable and nil otherwise.
func (v *Variable) Float32s() []float32 { d, _ := v.data.([]float32); return d }

// Float64s returns the backing slice of a Float64 variable and nil otherwise.
func (v *Variable) Float64s() []float64 { d, _ := v.data.([]float64); return d }

// SetAll broadcasts val to every slot of every particle. The Go type of val
// must exactly match the variable's declared element type: no widening or
// narrowing conversion is applied, so type maxima survive untouched.
func (v *Variable) SetAll(val interface{}) error {
	switch d := v.data.(type) {
	case []int8:
		x, ok := val.(int8)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	case []int16:
		x, ok := val.(int16)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	case []int32:
		x, ok := val.(int32)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	case []int64:
		x, ok := val.(int64)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	case []float32:
		x, ok := val.(float32)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	case []float64:
		x, ok := val.(float64)
		if !ok {
			return v.setAllTypeError(val)
		}
		for i := range d {
			d[i] = x
		}
	}
	return nil
}

func (v *Variable) setAllTypeError(val interface{}) error {
	return fmt.Errorf(
		"Variable '%s' stores %s values, but was given a %T.",
		v.name, v.etype, val,
	)
}

// alloc creates a zeroed backing store for n elements of type t.
func alloc(t ElementType, n int) interface{} {
	switch t {
	case Int8:
		return make([]int8, n)
	case Int16:
		return make([]int16, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	}
	panic(fmt.Sprintf("Impossible element type %d.", int32(t)))
}

// resize grows or shrinks the backing store to n elements. New elements are
// zeroed.
func (v *Variable) resize(n int) {
	switch d := v.data.(type) {
	case []int8:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]int8, n-len(d))...)
		}
	case []int16:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]int16, n-len(d))...)
		}
	case []int32:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]int32, n-len(d))...)
		}
	case []int64:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]int64, n-len(d))...)
		}
	case []float32:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]float32, n-len(d))...)
		}
	case []float64:
		if n <= len(d) {
			v.data = d[:n]
		} else {
			v.data = append(d, make([]float64, n-len(d))...)
		}
	}
}

// swapRemove moves particle last's slots into particle i's. Used by the
// swarm when compacting after escaped particles are culled.
func (v *Variable) swapRemove(i, last int) {
	c := v.components
	switch d := v.data.(type) {
	case []int8:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	case []int16:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	case []int32:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	case []int64:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	case []float32:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	case []float64:
		copy(d[i*c:(i+1)*c], d[last*c:(last+1)*c])
	}
}

// valueAt returns particle i's value. 1-component variables yield the bare
// scalar, wider variables yield a copy of the component slice.
func (v *Variable) valueAt(i int) interface{} {
	c := v.components
	switch d := v.data.(type) {
	case []int8:
		if c == 1 {
			return d[i]
		}
		out := make([]int8, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	case []int16:
		if c == 1 {
			return d[i]
		}
		out := make([]int16, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	case []int32:
		if c == 1 {
			return d[i]
		}
		out := make([]int32, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	case []int64:
		if c == 1 {
			return d[i]
		}
		out := make([]int64, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	case []float32:
		if c == 1 {
			return d[i]
		}
		out := make([]float32, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	case []float64:
		if c == 1 {
			return d[i]
		}
		out := make([]float64, c)
		copy(out, d[i*c:(i+1)*c])
		return out
	}
	panic("Impossible element type.")
}
