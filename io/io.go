/*package io reads and writes the files used by the aglogen command line tool:
gcfg configuration files, whitespace separated text tables of particles,
masks, and analysis results, binary aggregate files, and matplotlib plots.
*/
package io

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/aggregate"
	"github.com/aglogen/aglogen/fractal"
)

// ReadPoints reads a particle table with the columns "x y z r".
func ReadPoints(fname string) ([]r3.Vec, []float64, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2, 3}, nil)
	if err != nil {
		return nil, nil, err
	}

	xs := make([]r3.Vec, len(cols[0]))
	rs := cols[3]
	for i := range xs {
		xs[i] = r3.Vec{X: cols[0][i], Y: cols[1][i], Z: cols[2][i]}
		if !(rs[i] > 0) {
			return nil, nil, fmt.Errorf(
				"Particle %d in %s has non-positive radius %g.", i, fname, rs[i],
			)
		}
	}
	return xs, rs, nil
}

// WritePoints writes a particle table readable by ReadPoints.
func WritePoints(wr io.Writer, res *aggregate.Result) error {
	bw := bufio.NewWriter(wr)
	fmt.Fprintf(bw, "# Algorithm: %s (v%s), Seed: %d, N: %d\n",
		res.Algorithm, res.Version, res.Seed, res.N())
	fmt.Fprintf(bw, "# Df: %.6g, kf: %.6g, R^2: %.6g\n",
		res.FractalDimension, res.Prefactor, res.FitRSquared)
	fmt.Fprintln(bw, "# Column 0 - X")
	fmt.Fprintln(bw, "# Column 1 - Y")
	fmt.Fprintln(bw, "# Column 2 - Z")
	fmt.Fprintln(bw, "# Column 3 - Radius")
	for i, x := range res.Coordinates {
		fmt.Fprintf(bw, "%.17g %.17g %.17g %.17g\n", x.X, x.Y, x.Z, res.Radii[i])
	}
	return bw.Flush()
}

// ReadMask reads a binary image stored as one row per line of whitespace
// separated 0/1 values. Any non-zero value is foreground.
func ReadMask(fname string) (*fractal.Mask, error) {
	width, err := tableWidth(fname)
	if err != nil {
		return nil, err
	} else if width == 0 {
		return nil, fmt.Errorf("Mask file %s has no rows.", fname)
	}

	idxs := make([]int, width)
	for i := range idxs {
		idxs[i] = i
	}
	cols, err := table.ReadTable(fname, idxs, nil)
	if err != nil {
		return nil, err
	}

	m := fractal.NewMask(width, len(cols[0]))
	for x, col := range cols {
		for y, v := range col {
			m.Set(x, y, v != 0)
		}
	}
	return m, nil
}

// WriteMask writes m in the format read by ReadMask.
func WriteMask(wr io.Writer, m *fractal.Mask) error {
	bw := bufio.NewWriter(wr)
	fmt.Fprintf(bw, "# %d x %d mask, %d foreground pixels\n",
		m.Width, m.Height, m.Count())
	row := make([]string, m.Width)
	for y := 0; y < m.Height; y++ {
		for x := range row {
			row[x] = "0"
			if m.At(x, y) {
				row[x] = "1"
			}
		}
		fmt.Fprintln(bw, strings.Join(row, " "))
	}
	return bw.Flush()
}

// WriteResult writes the per-scale table of an analysis. Columns which do
// not apply to res.Method are omitted.
func WriteResult(wr io.Writer, res *fractal.Result) error {
	bw := bufio.NewWriter(wr)
	fmt.Fprintf(bw, "# Method: %s\n", res.Method)
	if !math.IsNaN(res.Df) {
		fmt.Fprintf(bw, "# Df: %.6g +/- %.3g (95%%: [%.6g, %.6g]), R^2: %.6g\n",
			res.Df, res.StdErr, res.CI95[0], res.CI95[1], res.RSquared)
	}
	fmt.Fprintln(bw, "# Column 0 - Size [pixels]")
	fmt.Fprintln(bw, "# Column 1 - log10(Size) (log10(1/Size) for box_counting)")
	fmt.Fprintln(bw, "# Column 2 - log10(Count)")
	if res.Lacunarity != nil {
		fmt.Fprintln(bw, "# Column 3 - Lacunarity")
	}
	for i, s := range res.Sizes {
		fmt.Fprintf(bw, "%d %.10g %.10g", s, res.LogSizes[i], res.LogCounts[i])
		if res.Lacunarity != nil {
			fmt.Fprintf(bw, " %.10g", res.Lacunarity[i])
		}
		fmt.Fprintln(bw)
	}

	if res.Q != nil {
		fmt.Fprintln(bw, "#")
		fmt.Fprintln(bw, "# q tau(q) D_q")
		for k, q := range res.Q {
			fmt.Fprintf(bw, "# %g %.10g %.10g\n", q, res.Tau[k], res.Dq[k])
		}
	}
	return bw.Flush()
}

// tableWidth returns the number of columns on the first non-comment line of
// the file.
func tableWidth(fname string) (int, error) {
	f, err := os.Open(fname)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<16), 1<<26)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return len(strings.Fields(line)), nil
	}
	return 0, sc.Err()
}
