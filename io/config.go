package io

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/aglogen/aglogen/aggregate"
	"github.com/aglogen/aglogen/fractal"
)

const (
	ExampleSimulateFile = `[Simulate]

#######################
# Required Parameters #
#######################

# The aggregation algorithm. Must be one of [ DLA | CCA | Ballistic ].
Algorithm = DLA

# Number of primary particles in the final aggregate.
Particles = 1000

# Output file for the particle table. Each line is "x y z r".
Output = path/to/aggregate.txt

#######################
# Optional Parameters #
#######################

# Seed for the random number generator. Two runs with the same configuration
# and seed produce identical aggregates. Default is 0.
# Seed = 42

# Probability that a contact turns into a bond. Default is 1.
# StickingProbability = 1

# For DLA and Ballistic, the largest allowed launch radius. For CCA, the side
# length of the box the initial particles are placed in. Default is 1000.
# DomainBound = 1000

# Range of primary particle radii. A random radius is drawn uniformly between
# the two for every particle. Both default to 1.
# RadiusMin = 1
# RadiusMax = 1

# Random walk controls for DLA and CCA. Step is in units of the smallest
# radius and Drift biases steps towards the target, in [0, 1).
# StepFactor = 0.5
# Drift = 0

# Budget of launches per particle (or per merge, for CCA) before the run is
# declared non-convergent.
# MaxLaunches = 10000

# Binary copy of the full result, including metrics. Readable with
# io.ReadAggregate.
# BinaryOutput = path/to/aggregate.agg

# Plot of the radius of gyration against particle count, written as a
# matplotlib script and executed at exit.
# PlotFile = rg.png

# Bound on the wall-clock time of the run, in seconds. Default is no bound.
# Timeout = 60

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleAnalyzeFile = `[Analyze]

#######################
# Required Parameters #
#######################

# Input file. Unless Projection is set, this is a binary mask: one image row
# per line, whitespace separated 0/1 columns. With Projection set it is a
# particle table in the format written by [Simulate].
Input = path/to/mask.txt

# The analysis. Must be one of
# [ box_counting | sandbox | correlation | lacunarity | multifractal ].
Method = box_counting

# Output file for the per-scale table.
Output = path/to/analysis.txt

#######################
# Optional Parameters #
#######################

# Scale range in pixels, and the number of log-spaced scales in between.
# MinSize = 2
# MaxSize = 512
# Scales = 20

# Number of sandbox centers.
# Seeds = 50

# Largest number of foreground pixels used by correlation.
# MaxPoints = 2000

# Moments used by multifractal, as a comma separated list.
# Q = -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5

# Treat Input as a particle table and analyze its projections instead.
# Azimuths and elevations are given in degrees as "start, end, step", and
# ImagePixels is the number of pixels across the longer side of each image.
# Projection = true
# Azimuth = 0, 150, 30
# Elevation = 0, 150, 30
# ImagePixels = 512

# Plot of the log-log series and fitted line.
# PlotFile = fit.png

# Maximum number of goroutines used. Default is one per core.
# Threads = 4

# ProfileFile = prof.out
# LogFile = log.out`
)

// SharedConfig holds the options every mode accepts.
type SharedConfig struct {
	// Required
	Output string
	// Optional
	LogFile, ProfileFile, PlotFile string
	Threads                        int
	Timeout                        float64
}

func (con *SharedConfig) ValidOutput() bool      { return con.Output != "" }
func (con *SharedConfig) ValidLogFile() bool     { return con.LogFile != "" }
func (con *SharedConfig) ValidProfileFile() bool { return con.ProfileFile != "" }
func (con *SharedConfig) ValidPlotFile() bool    { return con.PlotFile != "" }
func (con *SharedConfig) ValidThreads() bool     { return con.Threads >= 0 }
func (con *SharedConfig) ValidTimeout() bool     { return con.Timeout >= 0 }

type SimulateConfig struct {
	SharedConfig

	// Required
	Algorithm string
	Particles int

	// Optional
	Seed                 uint64
	StickingProbability  float64
	DomainBound          float64
	RadiusMin, RadiusMax float64
	StepFactor, Drift    float64
	MaxLaunches          int
	BinaryOutput         string
}

type SimulateWrapper struct {
	Simulate SimulateConfig
}

func DefaultSimulateWrapper() *SimulateWrapper {
	dla := aggregate.DefaultDLAConfig()
	con := SimulateConfig{
		StickingProbability: 1,
		DomainBound:         1000,
		RadiusMin:           dla.Radius.Min,
		RadiusMax:           dla.Radius.Max,
		StepFactor:          dla.Walk.StepFactor,
		Drift:               dla.Walk.Drift,
		MaxLaunches:         dla.Budget.MaxLaunches,
	}
	return &SimulateWrapper{con}
}

func (con *SimulateConfig) ValidAlgorithm() bool {
	_, err := aggregate.ParseKind(strings.TrimSpace(con.Algorithm))
	return err == nil
}
func (con *SimulateConfig) ValidParticles() bool {
	return con.Particles > 0 && con.Particles <= aggregate.MaxParticles
}
func (con *SimulateConfig) ValidStickingProbability() bool {
	return con.StickingProbability >= 0 && con.StickingProbability <= 1
}
func (con *SimulateConfig) ValidDomainBound() bool { return con.DomainBound > 0 }
func (con *SimulateConfig) ValidRadius() bool {
	return con.RadiusMin > 0 && con.RadiusMax >= con.RadiusMin
}
func (con *SimulateConfig) ValidBinaryOutput() bool { return con.BinaryOutput != "" }

// Check reports the first required or invalid value in the style of the
// command line tool's error messages.
func (con *SimulateConfig) Check() error {
	switch {
	case !con.ValidAlgorithm():
		return fmt.Errorf("Need to specify a valid 'Algorithm' (DLA, CCA, or "+
			"Ballistic), but got '%s'.", con.Algorithm)
	case !con.ValidParticles():
		return fmt.Errorf("Need to specify a positive 'Particles' value no "+
			"more than %d.", aggregate.MaxParticles)
	case !con.ValidOutput():
		return fmt.Errorf("Need to specify an 'Output' file.")
	case !con.ValidStickingProbability():
		return fmt.Errorf("'StickingProbability' must be in [0, 1], but is %g.",
			con.StickingProbability)
	case !con.ValidDomainBound():
		return fmt.Errorf("'DomainBound' must be positive, but is %g.",
			con.DomainBound)
	case !con.ValidRadius():
		return fmt.Errorf("'RadiusMin' and 'RadiusMax' must satisfy "+
			"0 < RadiusMin <= RadiusMax, but are %g and %g.",
			con.RadiusMin, con.RadiusMax)
	case !con.ValidThreads():
		return fmt.Errorf("'Threads' must be non-negative, but is %d.", con.Threads)
	case !con.ValidTimeout():
		return fmt.Errorf("'Timeout' must be non-negative, but is %g.", con.Timeout)
	}
	return nil
}

// Params converts con to engine parameters. con must have passed Check.
func (con *SimulateConfig) Params() aggregate.Params {
	kind, _ := aggregate.ParseKind(strings.TrimSpace(con.Algorithm))
	return aggregate.Params{
		Algorithm:           kind,
		NParticles:          con.Particles,
		StickingProbability: con.StickingProbability,
		DomainBound:         con.DomainBound,
		Seed:                con.Seed,
	}
}

// Options returns engine configs carrying the radius and walk settings of
// con. Everything else keeps the package defaults.
func (con *SimulateConfig) Options() aggregate.Options {
	rr := aggregate.RadiusRange{Min: con.RadiusMin, Max: con.RadiusMax}

	dla := aggregate.DefaultDLAConfig()
	dla.Radius = rr
	dla.Walk.StepFactor, dla.Walk.Drift = con.StepFactor, con.Drift
	dla.Budget.MaxLaunches = con.MaxLaunches

	bal := aggregate.DefaultBallisticConfig()
	bal.Radius = rr
	bal.Budget.MaxLaunches = con.MaxLaunches

	cca := aggregate.DefaultCCAConfig()
	cca.Radius = rr
	cca.Walk.StepFactor, cca.Walk.Drift = con.StepFactor, con.Drift
	cca.Budget.MaxLaunches = con.MaxLaunches

	return aggregate.Options{DLA: &dla, Ballistic: &bal, CCA: &cca}
}

type AnalyzeConfig struct {
	SharedConfig

	// Required
	Input, Method string

	// Optional
	MinSize, MaxSize, Scales int
	Seeds, MaxPoints         int
	Q                        string

	Projection         bool
	Azimuth, Elevation string
	ImagePixels        int
}

type AnalyzeWrapper struct {
	Analyze AnalyzeConfig
}

func DefaultAnalyzeWrapper() *AnalyzeWrapper {
	p := fractal.DefaultParams()
	con := AnalyzeConfig{
		MinSize: p.MinSize, MaxSize: p.MaxSize, Scales: p.NScales,
		Seeds: p.Seeds, MaxPoints: p.MaxPoints,
		Azimuth: "0, 150, 30", Elevation: "0, 150, 30",
		ImagePixels: 512,
	}
	return &AnalyzeWrapper{con}
}

func (con *AnalyzeConfig) ValidInput() bool { return con.Input != "" }
func (con *AnalyzeConfig) ValidMethod() bool {
	_, err := fractal.ParseMethod(strings.TrimSpace(con.Method))
	return err == nil
}
func (con *AnalyzeConfig) ValidSizes() bool {
	return con.MinSize >= 1 && con.MaxSize >= con.MinSize
}
func (con *AnalyzeConfig) ValidScales() bool      { return con.Scales >= 2 }
func (con *AnalyzeConfig) ValidImagePixels() bool { return con.ImagePixels > 0 }
func (con *AnalyzeConfig) ValidQ() bool {
	_, err := parseFloats(con.Q)
	return err == nil
}

// Check reports the first required or invalid value.
func (con *AnalyzeConfig) Check() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("Need to specify an 'Input' file.")
	case !con.ValidMethod():
		return fmt.Errorf("Need to specify a valid 'Method', but got '%s'.",
			con.Method)
	case !con.ValidOutput():
		return fmt.Errorf("Need to specify an 'Output' file.")
	case !con.ValidSizes():
		return fmt.Errorf("'MinSize' and 'MaxSize' must satisfy "+
			"1 <= MinSize <= MaxSize, but are %d and %d.", con.MinSize, con.MaxSize)
	case !con.ValidScales():
		return fmt.Errorf("'Scales' must be at least 2, but is %d.", con.Scales)
	case !con.ValidQ():
		return fmt.Errorf("Could not parse 'Q' value '%s'.", con.Q)
	case !con.ValidThreads():
		return fmt.Errorf("'Threads' must be non-negative, but is %d.", con.Threads)
	case !con.ValidTimeout():
		return fmt.Errorf("'Timeout' must be non-negative, but is %g.", con.Timeout)
	}
	if con.Projection {
		if !con.ValidImagePixels() {
			return fmt.Errorf("'ImagePixels' must be positive, but is %d.",
				con.ImagePixels)
		} else if _, err := parseRange(con.Azimuth); err != nil {
			return fmt.Errorf("Could not parse 'Azimuth' value '%s': %s",
				con.Azimuth, err.Error())
		} else if _, err := parseRange(con.Elevation); err != nil {
			return fmt.Errorf("Could not parse 'Elevation' value '%s': %s",
				con.Elevation, err.Error())
		}
	}
	return nil
}

// Params converts con to analysis parameters. con must have passed Check.
func (con *AnalyzeConfig) Params() (fractal.Method, fractal.Params) {
	method, _ := fractal.ParseMethod(strings.TrimSpace(con.Method))
	p := fractal.DefaultParams()
	p.MinSize, p.MaxSize, p.NScales = con.MinSize, con.MaxSize, con.Scales
	p.Seeds, p.MaxPoints = con.Seeds, con.MaxPoints
	p.Workers = con.Threads
	if q, _ := parseFloats(con.Q); len(q) > 0 {
		p.Q = q
	}
	return method, p
}

// Angles returns the (start, end, step) azimuth and elevation sweeps. con
// must have passed Check.
func (con *AnalyzeConfig) Angles() (az, el [3]float64) {
	az, _ = parseRange(con.Azimuth)
	el, _ = parseRange(con.Elevation)
	return az, el
}

// ReadSimulateConfig reads and checks a [Simulate] file.
func ReadSimulateConfig(fname string) (*SimulateConfig, error) {
	wrap := DefaultSimulateWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Simulate.Check(); err != nil {
		return nil, err
	}
	return &wrap.Simulate, nil
}

// ReadAnalyzeConfig reads and checks an [Analyze] file.
func ReadAnalyzeConfig(fname string) (*AnalyzeConfig, error) {
	wrap := DefaultAnalyzeWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Analyze.Check(); err != nil {
		return nil, err
	}
	return &wrap.Analyze, nil
}

func parseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	toks := strings.Split(s, ",")
	out := make([]float64, len(toks))
	for i, tok := range toks {
		if _, err := fmt.Sscan(strings.TrimSpace(tok), &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseRange(s string) ([3]float64, error) {
	xs, err := parseFloats(s)
	if err != nil {
		return [3]float64{}, err
	} else if len(xs) != 3 {
		return [3]float64{}, fmt.Errorf("expected 'start, end, step', got %d values",
			len(xs))
	}
	return [3]float64{xs[0], xs[1], xs[2]}, nil
}
