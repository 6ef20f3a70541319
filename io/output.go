package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/aggregate"
)

var end = binary.LittleEndian

/*
The binary format used for aggregate files is as follows:
    |-- 1 --||-- ... 2 ... --||-- ... 3 ... --||-- ... 4 ... --|

    1 - (AggregateHeader) Header describing the run and its fit. The first
        field is a flag giving the endianness of the file: -1 is little
        endian and 0 is big endian.
    2 - ([][3]float64) Contiguous block of x, y, z coordinates.
    3 - ([]float64) Contiguous block of radii.
    4 - ([]float64) Contiguous block of the radius of gyration evolution.
*/
type AggregateHeader struct {
	Type TypeInfo
	Run  RunInfo
	Fit  FitInfo
}

type TypeInfo struct {
	Endianness int64
	HeaderSize int64
	Algorithm  int64
	Version    [16]byte
}

type RunInfo struct {
	Seed          uint64
	Count         int64
	ExecutionTime int64 // nanoseconds
}

type FitInfo struct {
	FractalDimension, Prefactor float64
	RSquared, StdErr            float64
	Porosity                    float64
}

type vector [3]float64

// NewAggregateHeader returns the header WriteAggregate uses for res.
func NewAggregateHeader(res *aggregate.Result) AggregateHeader {
	hd := AggregateHeader{}
	if end == binary.LittleEndian {
		hd.Type.Endianness = -1
	}
	hd.Type.HeaderSize = int64(binary.Size(hd))
	hd.Type.Algorithm = int64(res.Algorithm)
	copy(hd.Type.Version[:], res.Version)

	hd.Run.Seed = res.Seed
	hd.Run.Count = int64(res.N())
	hd.Run.ExecutionTime = int64(res.ExecutionTime)

	hd.Fit.FractalDimension, hd.Fit.Prefactor = res.FractalDimension, res.Prefactor
	hd.Fit.RSquared, hd.Fit.StdErr = res.FitRSquared, res.FitStdErr
	hd.Fit.Porosity = res.Porosity
	return hd
}

// WriteAggregate writes the geometry and fit of res in binary form.
func WriteAggregate(wr io.Writer, res *aggregate.Result) error {
	if len(res.Radii) != res.N() || len(res.RgEvolution) != res.N() {
		return fmt.Errorf("Result has %d coordinates, %d radii, and %d Rg "+
			"values.", res.N(), len(res.Radii), len(res.RgEvolution))
	}

	hd := NewAggregateHeader(res)
	xs := make([]vector, res.N())
	for i, x := range res.Coordinates {
		xs[i] = vector{x.X, x.Y, x.Z}
	}

	for _, block := range []any{&hd, xs, res.Radii, res.RgEvolution} {
		if err := binary.Write(wr, end, block); err != nil {
			return err
		}
	}
	return nil
}

// ReadAggregate reads a file written by WriteAggregate. Metrics which are not
// stored in the file, such as coordination and inertia, are left zero.
func ReadAggregate(rd io.Reader) (*aggregate.Result, error) {
	var flag int64
	if err := binary.Read(rd, binary.LittleEndian, &flag); err != nil {
		return nil, err
	}
	order, err := endianness(flag)
	if err != nil {
		return nil, err
	}

	// The flag has already been consumed, so read the rest of the header
	// and splice it back in.
	hd := AggregateHeader{}
	size := binary.Size(hd)
	buf := make([]byte, size)
	order.PutUint64(buf, uint64(flag))
	if _, err := io.ReadFull(rd, buf[8:]); err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(buf), order, &hd); err != nil {
		return nil, err
	}
	if hd.Type.HeaderSize != int64(size) {
		return nil, fmt.Errorf("Expected AggregateHeader size of %d, found %d.",
			size, hd.Type.HeaderSize)
	} else if hd.Run.Count < 0 || hd.Run.Count > aggregate.MaxParticles {
		return nil, fmt.Errorf("Header particle count %d is out of range.",
			hd.Run.Count)
	}

	n := int(hd.Run.Count)
	xs := make([]vector, n)
	res := &aggregate.Result{
		Algorithm:        aggregate.Kind(hd.Type.Algorithm),
		Version:          string(bytes.TrimRight(hd.Type.Version[:], "\x00")),
		Seed:             hd.Run.Seed,
		Coordinates:      make([]r3.Vec, n),
		Radii:            make([]float64, n),
		RgEvolution:      make([]float64, n),
		FractalDimension: hd.Fit.FractalDimension,
		Prefactor:        hd.Fit.Prefactor,
		FitRSquared:      hd.Fit.RSquared,
		FitStdErr:        hd.Fit.StdErr,
		Porosity:         hd.Fit.Porosity,
		ExecutionTime:    time.Duration(hd.Run.ExecutionTime),
	}
	for _, block := range []any{xs, res.Radii, res.RgEvolution} {
		if err := binary.Read(rd, order, block); err != nil {
			return nil, err
		}
	}
	for i, x := range xs {
		res.Coordinates[i] = r3.Vec{X: x[0], Y: x[1], Z: x[2]}
	}
	return res, nil
}

// endianness converts an endianness flag to a byte order. The flags read the
// same in either order.
func endianness(flag int64) (binary.ByteOrder, error) {
	switch flag {
	case -1:
		return binary.LittleEndian, nil
	case 0:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("Unrecognized endianness flag, %d.", flag)
}
