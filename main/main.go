package main

import (
	"flag"
	"fmt"
	"log"
	"path"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/table"

	"github.com/YiZhangCUG/underworld2/geom"
	"github.com/YiZhangCUG/underworld2/io"
	"github.com/YiZhangCUG/underworld2/swarm"
)

func main() {
	// The main function manages input sanitization and calls the secondary
	// main functions for each mode.

	var (
		createStr, infoStr, importStr string
		exampleConfig                 string
		coordinator                   bool
	)
	vars := map[string]*string{
		"Create":        &createStr,
		"Info":          &infoStr,
		"ImportText":    &importStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&createStr, "Create", "",
		"Configuration file for [Create] mode: builds a swarm from a layout "+
			"and checkpoints it along with its variables.",
	)
	flag.StringVar(
		&infoStr, "Info", "",
		"Checkpoint file whose header should be printed.",
	)
	flag.StringVar(
		&importStr, "ImportText", "",
		"Configuration file for [ImportText] mode: reads particle "+
			"coordinates from an ASCII catalog and checkpoints the swarm.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Create' and 'ImportText'.",
	)
	flag.BoolVar(
		&coordinator, "Coordinator", true,
		"Whether this worker is the coordinator. Only the coordinator "+
			"removes stale checkpoint files before writing. Exactly one "+
			"worker in a cooperating group should set this.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Create":
		wrap := &io.CreateWrapper{}
		if err := gcfg.ReadFileInto(wrap, createStr); err != nil {
			log.Fatal(err.Error())
		}
		if err := wrap.CheckInit(); err != nil {
			log.Fatal(err.Error())
		}
		createMain(wrap, coordinator)

	case "Info":
		infoMain(infoStr)

	case "ImportText":
		wrap := &io.ImportWrapper{}
		if err := gcfg.ReadFileInto(wrap, importStr); err != nil {
			log.Fatal(err.Error())
		}
		if err := wrap.CheckInit(); err != nil {
			log.Fatal(err.Error())
		}
		importMain(wrap, coordinator)

	case "ExampleConfig":
		switch exampleConfig {
		case "Create":
			fmt.Println(io.ExampleCreateFile)
		case "ImportText":
			fmt.Println(io.ExampleImportFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Create' and 'ImportText'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive
// error if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but only one mode flag may "+
				"be given at a time.", strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func createMain(wrap *io.CreateWrapper, coordinator bool) {
	m, err := wrap.Mesh.Mesh()
	if err != nil {
		log.Fatal(err.Error())
	}
	s, err := wrap.Swarm.Swarm(m)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf(
		"Populated swarm with %d particles over %d cells.",
		s.Count(), m.CellCount(),
	)

	for _, vc := range wrap.Variable {
		if _, err := vc.Declare(s); err != nil {
			log.Fatal(err.Error())
		}
	}

	swarmFile := checkpointPath(&wrap.Output, "", "swarm")
	files := []string{swarmFile}
	for _, v := range s.Variables() {
		files = append(files, checkpointPath(&wrap.Output, v.Name(), "var"))
	}
	if err := io.Cleanup(coordinator, files...); err != nil {
		log.Fatal(err.Error())
	}

	if err := io.WriteSwarm(swarmFile, s); err != nil {
		log.Fatal(err.Error())
	}
	for _, v := range s.Variables() {
		file := checkpointPath(&wrap.Output, v.Name(), "var")
		if err := io.WriteVariable(file, v); err != nil {
			log.Fatal(err.Error())
		}
	}
	log.Printf("Wrote %d checkpoint files to %s.", len(files), wrap.Output.Dir)
}

func infoMain(file string) {
	if hd, err := io.ReadSwarmHeader(file); err == nil {
		fmt.Printf("%s: swarm file\n", file)
		fmt.Printf("    dimension:      %d\n", hd.Dim)
		fmt.Printf("    particle count: %d\n", hd.Count)
		return
	}

	hd, err := io.ReadVariableHeader(file)
	if err != nil {
		log.Fatal(err.Error())
	}
	fmt.Printf("%s: variable file\n", file)
	fmt.Printf("    element type:   %s\n", swarm.ElementType(hd.ElementType))
	fmt.Printf("    element size:   %d bytes\n", hd.ElementSize)
	fmt.Printf("    components:     %d\n", hd.Components)
	fmt.Printf("    particle count: %d\n", hd.Count)
}

func importMain(wrap *io.ImportWrapper, coordinator bool) {
	m, err := wrap.Mesh.Mesh()
	if err != nil {
		log.Fatal(err.Error())
	}

	colIdxs := []int{wrap.Input.XCol - 1, wrap.Input.YCol - 1}
	if m.Dim() == 3 {
		if wrap.Input.ZCol == 0 {
			log.Fatal("A 3D mesh needs a 'ZCol' value.")
		}
		colIdxs = append(colIdxs, wrap.Input.ZCol-1)
	}

	cols, err := table.ReadTable(wrap.Input.File, colIdxs, nil)
	if err != nil {
		log.Fatal(err.Error())
	}

	coords := make([]geom.Vec, len(cols[0]))
	for i := range coords {
		for d := range colIdxs {
			coords[i][d] = cols[d][i]
		}
	}

	s := swarm.New(m, false)
	idxs := s.AddParticlesWithCoordinates(coords)
	rejected := 0
	for _, idx := range idxs {
		if idx == -1 {
			rejected++
		}
	}
	log.Printf(
		"Imported %d particles from %s (%d outside the mesh domain).",
		s.Count(), wrap.Input.File, rejected,
	)

	file := checkpointPath(&wrap.Output, "", "swarm")
	if err := io.Cleanup(coordinator, file); err != nil {
		log.Fatal(err.Error())
	}
	if err := io.WriteSwarm(file, s); err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Wrote %s.", file)
}

// checkpointPath names an output file <dir>/<prefix>[.<name>].<ext>.
func checkpointPath(oc *io.OutputConfig, name, ext string) string {
	if name == "" {
		return path.Join(oc.Dir, fmt.Sprintf("%s.%s", oc.Prefix, ext))
	}
	return path.Join(oc.Dir, fmt.Sprintf("%s.%s.%s", oc.Prefix, name, ext))
}
