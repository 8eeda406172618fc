package io

import (
	"fmt"
	"math"
	"strconv"

	"github.com/YiZhangCUG/underworld2/geom"
	"github.com/YiZhangCUG/underworld2/mesh"
	"github.com/YiZhangCUG/underworld2/swarm"
)

// MeshConfig describes a Cartesian background mesh. Set ResZ to zero for a
// 2D mesh.
type MeshConfig struct {
	// Required
	ResX, ResY int
	MaxX, MaxY float64

	// Optional
	ResZ             int
	MinX, MinY, MinZ float64
	MaxZ             float64
}

func (mc *MeshConfig) CheckInit() error {
	if mc.ResX <= 0 {
		return fmt.Errorf("Need to specify a positive 'ResX' value.")
	} else if mc.ResY <= 0 {
		return fmt.Errorf("Need to specify a positive 'ResY' value.")
	} else if mc.ResZ < 0 {
		return fmt.Errorf("'ResZ' must not be negative.")
	}

	if mc.MaxX <= mc.MinX {
		return fmt.Errorf(
			"'MaxX' must be larger than 'MinX', but the range is [%g, %g].",
			mc.MinX, mc.MaxX,
		)
	} else if mc.MaxY <= mc.MinY {
		return fmt.Errorf(
			"'MaxY' must be larger than 'MinY', but the range is [%g, %g].",
			mc.MinY, mc.MaxY,
		)
	} else if mc.ResZ > 0 && mc.MaxZ <= mc.MinZ {
		return fmt.Errorf(
			"'MaxZ' must be larger than 'MinZ', but the range is [%g, %g].",
			mc.MinZ, mc.MaxZ,
		)
	}

	return nil
}

// Mesh builds the Cartesian mesh the config describes. CheckInit must have
// succeeded first.
func (mc *MeshConfig) Mesh() (*mesh.Cartesian, error) {
	res := []int{mc.ResX, mc.ResY}
	if mc.ResZ > 0 {
		res = append(res, mc.ResZ)
	}
	min := geom.Vec{mc.MinX, mc.MinY, mc.MinZ}
	max := geom.Vec{mc.MaxX, mc.MaxY, mc.MaxZ}
	return mesh.NewCartesian(res, min, max)
}

// SwarmConfig describes how a swarm is populated.
type SwarmConfig struct {
	// Required
	Layout string

	// Optional
	ParticlesPerCell  int
	GaussPointsPerDim int
	Seed              int
	ParticleEscape    bool
}

func (sc *SwarmConfig) CheckInit() error {
	switch sc.Layout {
	case "random":
		if sc.ParticlesPerCell <= 0 {
			return fmt.Errorf(
				"The 'random' layout needs a positive 'ParticlesPerCell' " +
					"value.",
			)
		}
	case "gauss":
		if sc.GaussPointsPerDim <= 0 {
			return fmt.Errorf(
				"The 'gauss' layout needs a positive 'GaussPointsPerDim' " +
					"value.",
			)
		}
	default:
		return fmt.Errorf(
			"Unrecognized 'Layout' value '%s'. Accepted values are 'random' "+
				"and 'gauss'.", sc.Layout,
		)
	}
	return nil
}

// Swarm builds an empty swarm over m and populates it according to the
// config.
func (sc *SwarmConfig) Swarm(m *mesh.Cartesian) (*swarm.Swarm, error) {
	s := swarm.New(m, sc.ParticleEscape)

	var layout swarm.Layout
	switch sc.Layout {
	case "random":
		layout = &swarm.PerCellRandom{
			PerCell: sc.ParticlesPerCell, Seed: int64(sc.Seed),
		}
	case "gauss":
		layout = &swarm.PerCellGauss{PerDim: sc.GaussPointsPerDim}
	default:
		return nil, fmt.Errorf("Unrecognized 'Layout' value '%s'.", sc.Layout)
	}

	if err := swarm.Populate(s, layout); err != nil {
		return nil, err
	}
	return s, nil
}

// VariableConfig describes one typed per-particle variable.
type VariableConfig struct {
	// Required
	Type string

	// Optional
	Components int
	Initial    string
	Name       string
}

func (vc *VariableConfig) CheckInit(name string) error {
	if _, err := swarm.ParseElementType(vc.Type); err != nil {
		return fmt.Errorf("Variable '%s': %s", name, err.Error())
	}
	if vc.Components == 0 {
		vc.Components = 1
	} else if vc.Components < 0 {
		return fmt.Errorf(
			"Variable '%s' given a negative 'Components' value, %d.",
			name, vc.Components,
		)
	}
	vc.Name = name
	return nil
}

// Declare adds the configured variable to s and applies its initial value,
// if one was given.
func (vc *VariableConfig) Declare(s *swarm.Swarm) (*swarm.Variable, error) {
	etype, err := swarm.ParseElementType(vc.Type)
	if err != nil {
		return nil, err
	}

	v, err := s.AddVariable(vc.Name, etype, vc.Components)
	if err != nil {
		return nil, err
	}
	if vc.Initial == "" {
		return v, nil
	}

	val, err := parseValue(etype, vc.Initial)
	if err != nil {
		return nil, fmt.Errorf(
			"Variable '%s' has invalid 'Initial' value '%s': %s",
			vc.Name, vc.Initial, err.Error(),
		)
	}
	if err := v.SetAll(val); err != nil {
		return nil, err
	}
	return v, nil
}

// parseValue converts a config string into the exact Go type the element
// type stores. "max" selects the type's largest representable value, which
// checkpoint regression configs use.
func parseValue(t swarm.ElementType, s string) (interface{}, error) {
	if s == "max" {
		switch t {
		case swarm.Int8:
			return int8(math.MaxInt8), nil
		case swarm.Int16:
			return int16(math.MaxInt16), nil
		case swarm.Int32:
			return int32(math.MaxInt32), nil
		case swarm.Int64:
			return int64(math.MaxInt64), nil
		case swarm.Float32:
			return float32(math.MaxFloat32), nil
		case swarm.Float64:
			return float64(math.MaxFloat64), nil
		}
	}

	switch t {
	case swarm.Int8:
		n, err := strconv.ParseInt(s, 10, 8)
		return int8(n), err
	case swarm.Int16:
		n, err := strconv.ParseInt(s, 10, 16)
		return int16(n), err
	case swarm.Int32:
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	case swarm.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err
	case swarm.Float32:
		x, err := strconv.ParseFloat(s, 32)
		return float32(x), err
	case swarm.Float64:
		x, err := strconv.ParseFloat(s, 64)
		return x, err
	}
	return nil, fmt.Errorf("Unrecognized element type %s.", t)
}

// OutputConfig describes where checkpoint files are written.
type OutputConfig struct {
	// Required
	Dir string

	// Optional
	Prefix string
}

func (oc *OutputConfig) CheckInit() error {
	if oc.Dir == "" {
		return fmt.Errorf("Need to specify an output 'Dir' value.")
	}
	if oc.Prefix == "" {
		oc.Prefix = "swarm"
	}
	return nil
}

// InputConfig describes an ASCII particle catalog for text import.
type InputConfig struct {
	// Required
	File string

	// Optional
	XCol, YCol, ZCol int
}

func (ic *InputConfig) CheckInit() error {
	if ic.File == "" {
		return fmt.Errorf("Need to specify an input 'File' value.")
	}
	if ic.XCol == 0 && ic.YCol == 0 {
		ic.XCol, ic.YCol, ic.ZCol = 1, 2, 3
	}
	if ic.XCol <= 0 || ic.YCol <= 0 || ic.ZCol < 0 {
		return fmt.Errorf(
			"Column indices must be positive (columns are 1-indexed).",
		)
	}
	return nil
}

// ExampleCreateFile is the example config printed by -ExampleConfig Create.
const ExampleCreateFile = `[Mesh]
# Cells along each axis. Leave ResZ unset (or zero) for a 2D mesh.
ResX = 16
ResY = 16
# Bounding box. Min values default to zero.
MaxX = 1.0
MaxY = 1.0

[Swarm]
# 'random' scatters ParticlesPerCell particles uniformly in every cell.
# 'gauss' places GaussPointsPerDim^dim particles per cell at Gauss-Legendre
# abscissae.
Layout = gauss
GaussPointsPerDim = 2
# ParticleEscape = false
# Seed = 0

[Variable "materialIndex"]
# One of int8, int16, int32, int64, float32, float64. The legacy aliases
# char, short, int, long, float, and double are also accepted.
Type = int32
Components = 1
# Optional broadcast value applied after population. The word 'max' selects
# the type's largest representable value.
Initial = 0

[Variable "temperature"]
Type = float64
Initial = max

[Output]
Dir = .
Prefix = swarm`

// ExampleImportFile is the example config printed by -ExampleConfig
// ImportText.
const ExampleImportFile = `[Mesh]
ResX = 16
ResY = 16
MaxX = 1.0
MaxY = 1.0

[Input]
# Whitespace-separated ASCII catalog. Columns are 1-indexed; leave ZCol
# unset for 2D catalogs.
File = particles.txt
XCol = 1
YCol = 2
# ZCol = 3

[Output]
Dir = .
Prefix = imported`

// CreateWrapper is the top level layout of a [Create] mode config file.
type CreateWrapper struct {
	Mesh     MeshConfig
	Swarm    SwarmConfig
	Variable map[string]*VariableConfig
	Output   OutputConfig
}

// CheckInit validates every section of a create config.
func (w *CreateWrapper) CheckInit() error {
	if err := w.Mesh.CheckInit(); err != nil {
		return err
	}
	if err := w.Swarm.CheckInit(); err != nil {
		return err
	}
	for name, vc := range w.Variable {
		if err := vc.CheckInit(name); err != nil {
			return err
		}
	}
	return w.Output.CheckInit()
}

// ImportWrapper is the top level layout of an [ImportText] mode config file.
type ImportWrapper struct {
	Mesh   MeshConfig
	Input  InputConfig
	Output OutputConfig
}

// CheckInit validates every section of an import config.
func (w *ImportWrapper) CheckInit() error {
	if err := w.Mesh.CheckInit(); err != nil {
		return err
	}
	if err := w.Input.CheckInit(); err != nil {
		return err
	}
	return w.Output.CheckInit()
}
