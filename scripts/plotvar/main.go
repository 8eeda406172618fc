/*plotvar plots a histogram of the values stored in a variable checkpoint
file. Integer variables wider than 53 bits may lose precision in the plot;
the stored file is untouched.

Usage:
    $ plotvar file.var [bins]
*/
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/YiZhangCUG/underworld2/io"
	"github.com/YiZhangCUG/underworld2/swarm"
)

func main() {
	if len(os.Args) != 2 && len(os.Args) != 3 {
		log.Fatalf("Required file use: $ %s var_file [bins]", os.Args[0])
	}

	file := os.Args[1]
	bins := 50
	if len(os.Args) == 3 {
		var err error
		bins, err = strconv.Atoi(os.Args[2])
		if err != nil || bins <= 0 {
			log.Fatalf("Invalid bin count '%s'.", os.Args[2])
		}
	}

	hd, data, err := io.ReadVariableData(file)
	if err != nil {
		log.Fatal(err.Error())
	}

	vals := toFloat64s(data)
	if len(vals) == 0 {
		log.Fatalf("File %s stores no values.", file)
	}

	fmt.Printf(
		"%s: %d values of type %s\n",
		file, len(vals), swarm.ElementType(hd.ElementType),
	)

	centers, counts := histogram(vals, bins)

	plt.Reset()
	plt.Plot(centers, counts, "k", plt.LW(2))
	plt.Show()
}

func toFloat64s(data interface{}) []float64 {
	switch d := data.(type) {
	case []int8:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out
	case []int16:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out
	case []int32:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out
	case []int64:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out
	case []float32:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out
	case []float64:
		return d
	}
	panic("Impossible element type.")
}

func histogram(vals []float64, bins int) (centers, counts []float64) {
	low, high := vals[0], vals[0]
	for _, x := range vals {
		if x < low {
			low = x
		}
		if x > high {
			high = x
		}
	}
	if low == high {
		// All values identical. Widen the range so the single spike is
		// visible.
		low, high = low-0.5, high+0.5
	}

	dx := (high - low) / float64(bins)
	centers = make([]float64, bins)
	counts = make([]float64, bins)
	for i := range centers {
		centers[i] = low + dx*(float64(i)+0.5)
	}
	for _, x := range vals {
		i := int((x - low) / dx)
		if i == bins {
			i--
		}
		counts[i]++
	}
	return centers, counts
}
