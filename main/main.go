package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/gonum/stat"

	"github.com/aglogen/aglogen"
	"github.com/aglogen/aglogen/aggregate"
	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fractal"
	"github.com/aglogen/aglogen/io"
	"github.com/aglogen/aglogen/project"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var simulateStr, analyzeStr, exampleConfig string
	vars := map[string]*string{
		"Simulate":      &simulateStr,
		"Analyze":       &analyzeStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&simulateStr, "Simulate", "",
		"Configuration file for [Simulate] mode.",
	)
	flag.StringVar(
		&analyzeStr, "Analyze", "",
		"Configuration file for [Analyze] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Simulate' and 'Analyze'.",
	)
	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Simulate":
		con, err := io.ReadSimulateConfig(simulateStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		simulateMain(con)

	case "Analyze":
		con, err := io.ReadAnalyzeConfig(analyzeStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		analyzeMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Simulate":
			fmt.Println(io.ExampleSimulateFile)
		case "Analyze":
			fmt.Println(io.ExampleAnalyzeFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Simulate' and 'Analyze'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}
	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	} else if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but aglogen only accepts "+
				"one flag at a time.", strings.Join(setNames, ", "),
		)
	}
	return setNames[0], nil
}

// setupIO opens the log and profile files named in con and returns the
// logger that engines should report to.
func setupIO(con *io.SharedConfig) (*FileGroup, *slog.Logger) {
	var err error
	fg := new(FileGroup)
	out := os.Stderr

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
		out = fg.log
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg, slog.New(slog.NewTextHandler(out, nil))
}

func timeout(con *io.SharedConfig) time.Duration {
	return time.Duration(con.Timeout * float64(time.Second))
}

// simulateMain grows an aggregate and writes it to the configured outputs.
// If the run times out, the partial aggregate is still written before
// exiting.
func simulateMain(con *io.SimulateConfig) {
	fg, logger := setupIO(&con.SharedConfig)
	defer fg.Close()

	opts := con.Options()
	opts.Logger = logger
	runner := aglogen.NewRunner(opts, timeout(&con.SharedConfig), con.Threads)

	res, err := runner.Simulate(context.Background(), con.Params())
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			if partial, ok := e.Partial.(*aggregate.Result); ok && partial.N() > 0 {
				writeAggregate(con, partial)
				logger.Warn("wrote partial aggregate", "n", partial.N())
			}
		}
		log.Fatal(err.Error())
	}

	writeAggregate(con, res)
	if con.ValidPlotFile() {
		io.PlotGrowth(con.PlotFile, res)
		plt.Execute()
	}
}

func writeAggregate(con *io.SimulateConfig, res *aggregate.Result) {
	f, err := os.Create(con.Output)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer f.Close()
	if err := io.WritePoints(f, res); err != nil {
		log.Fatal(err.Error())
	}

	if con.ValidBinaryOutput() {
		bf, err := os.Create(con.BinaryOutput)
		if err != nil {
			log.Fatal(err.Error())
		}
		defer bf.Close()
		if err := io.WriteAggregate(bf, res); err != nil {
			log.Fatal(err.Error())
		}
	}
}

// analyzeMain analyzes either a mask or every configured projection of a
// particle table and writes the per-scale tables to the output file.
func analyzeMain(con *io.AnalyzeConfig) {
	fg, logger := setupIO(&con.SharedConfig)
	defer fg.Close()

	runner := aglogen.NewRunner(
		aggregate.Options{Logger: logger}, timeout(&con.SharedConfig), con.Threads,
	)
	method, p := con.Params()

	var results []*fractal.Result
	var labels []string
	if con.Projection {
		xs, rs, err := io.ReadPoints(con.Input)
		if err != nil {
			log.Fatal(err.Error())
		}
		az, el := con.Angles()
		views, err := runner.AnalyzeViews(
			context.Background(), &aggregate.Result{Coordinates: xs, Radii: rs},
			project.Range{Start: az[0], End: az[1], Step: az[2]},
			project.Range{Start: el[0], End: el[1], Step: el[2]},
			con.ImagePixels, method, p,
		)
		if err != nil {
			log.Fatal(err.Error())
		}
		for _, v := range views {
			results = append(results, v.Result)
			labels = append(labels, fmt.Sprintf("# View: azimuth %g, elevation %g, %s",
				v.Projection.Azimuth, v.Projection.Elevation, v.Mask))
		}
		logViewSummary(logger, results)
	} else {
		m, err := io.ReadMask(con.Input)
		if err != nil {
			log.Fatal(err.Error())
		}
		res, err := runner.Analyze(context.Background(), method, m, p)
		if err != nil {
			log.Fatal(err.Error())
		}
		results, labels = []*fractal.Result{res}, []string{""}
	}

	f, err := os.Create(con.Output)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer f.Close()
	for i, res := range results {
		if labels[i] != "" {
			fmt.Fprintln(f, labels[i])
		}
		if err := io.WriteResult(f, res); err != nil {
			log.Fatal(err.Error())
		}
	}

	if con.ValidPlotFile() {
		for i, res := range results {
			io.PlotFit(plotName(con.PlotFile, i, len(results)), res)
		}
		plt.Execute()
	}
}

// logViewSummary reports the spread of the dimension over all views.
func logViewSummary(logger *slog.Logger, results []*fractal.Result) {
	dfs := make([]float64, 0, len(results))
	for _, res := range results {
		if !math.IsNaN(res.Df) {
			dfs = append(dfs, res.Df)
		}
	}
	if len(dfs) < 2 {
		return
	}
	mean, std := stat.MeanStdDev(dfs, nil)
	logger.Info("views analyzed", "views", len(results), "df_mean", mean,
		"df_std", std)
}

// plotName returns the figure name for view i of n. A single view keeps the
// configured name.
func plotName(fname string, i, n int) string {
	if n == 1 {
		return fname
	}
	ext := filepath.Ext(fname)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(fname, ext), i, ext)
}
