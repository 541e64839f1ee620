package tracs

import (
	"errors"
	"fmt"
)

// Stage is one of the three signals produced for every grid point.
type Stage int

const (
	StageRaw Stage = iota
	StageRC
	StageConv
)

var Stages = []Stage{StageRaw, StageRC, StageConv}

var stageStrings = []string{
	"noconv",
	"rc",
	"conv",
}

func (s Stage) String() string {
	if s < StageRaw || s > StageConv {
		return "UNKNOWN"
	}
	return stageStrings[s]
}

// Table holds the signals of one stage indexed [voltage][lateral][depth].
type Table struct {
	Stage   Stage
	Signals [][][][]float64
}

// Results is the merged output of a sweep.
type Results struct {
	Config      Configuration
	Grid        SweepGrid
	Temperature [][][]float64
	Raw         Table
	Shaped      Table
	Convolved   Table
}

func newResults(config Configuration, grid SweepGrid) *Results {
	nv, ny, nz := len(grid.Voltages), len(grid.Lateral), len(grid.Depths)
	temperature := make([][][]float64, nv)
	for v := range temperature {
		temperature[v] = make([][]float64, ny)
		for y := range temperature[v] {
			temperature[v][y] = make([]float64, nz)
		}
	}
	return &Results{
		Config:      config,
		Grid:        grid,
		Temperature: temperature,
		Raw:         Table{Stage: StageRaw, Signals: newTable(nv, ny, nz)},
		Shaped:      Table{Stage: StageRC, Signals: newTable(nv, ny, nz)},
		Convolved:   Table{Stage: StageConv, Signals: newTable(nv, ny, nz)},
	}
}

func (r *Results) Table(stage Stage) *Table {
	switch stage {
	case StageRaw:
		return &r.Raw
	case StageRC:
		return &r.Shaped
	case StageConv:
		return &r.Convolved
	}
	return nil
}

// Row is one exported grid point of one stage.
type Row struct {
	Temperature float64
	Lateral     float64
	Depth       float64
	Voltage     float64
	Signal      []float64
}

// Rows returns the rows of a stage ordered by voltage, lateral offset and
// depth.
func (r *Results) Rows(stage Stage) []Row {
	table := r.Table(stage)
	if table == nil {
		return nil
	}
	rows := make([]Row, 0, r.Grid.Points())
	for vi, voltage := range r.Grid.Voltages {
		for yi, lateral := range r.Grid.Lateral {
			for zi, depth := range r.Grid.Depths {
				rows = append(rows, Row{
					Temperature: r.Temperature[vi][yi][zi],
					Lateral:     lateral,
					Depth:       depth,
					Voltage:     voltage,
					Signal:      table.Signals[vi][yi][zi],
				})
			}
		}
	}
	return rows
}

// Header describes a sweep. One is written per stage before its rows.
type Header struct {
	Stage       Stage
	Depth       float64 `hdf5:"depth"`
	Width       float64 `hdf5:"width"`
	Pitch       float64 `hdf5:"pitch"`
	NNS         int     `hdf5:"nns"`
	Temperature float64 `hdf5:"temperature"`
	Fluence     float64 `hdf5:"fluence"`
	Trapping    float64 `hdf5:"trapping"`
	Capacitance float64 `hdf5:"capacitance"`
	Dt          float64 `hdf5:"dt"`
	MaxTime     float64 `hdf5:"maxTime"`
	TimeSteps   int     `hdf5:"nTimeSteps"`
	WaveLength  int     `hdf5:"wavelength"`
	BulkType    string
	ImplantType string
	ScanType    string
	CarrierFile string
	Voltages    []float64
	// Axes in mm.
	LateralMM []float64
	DepthMM   []float64
}

func NewHeader(stage Stage, config Configuration, grid SweepGrid) Header {
	return Header{
		Stage:       stage,
		Depth:       config.Depth,
		Width:       config.Width,
		Pitch:       config.Pitch,
		NNS:         config.NNS,
		Temperature: config.Temperature,
		Fluence:     config.Fluence,
		Trapping:    config.TrappingTime(),
		Capacitance: config.Capacitance,
		Dt:          config.Dt,
		MaxTime:     config.MaxTime,
		TimeSteps:   config.TimeSteps(),
		WaveLength:  config.WaveLength,
		BulkType:    config.BulkType,
		ImplantType: config.ImplantType,
		ScanType:    config.ScanType,
		CarrierFile: config.CarrierFile,
		Voltages:    append([]float64(nil), grid.Voltages...),
		LateralMM:   toMillimeters(grid.Lateral),
		DepthMM:     toMillimeters(grid.Depths),
	}
}

func toMillimeters(micrometers []float64) []float64 {
	mm := make([]float64, len(micrometers))
	for i, v := range micrometers {
		mm[i] = v / 1000
	}
	return mm
}

// Exporter receives the results of a sweep. Calls come from a single
// goroutine.
type Exporter interface {
	WriteHeader(stage Stage, header Header) error
	WriteRow(stage Stage, row Row) error
	Close() error
}

// Export writes a header and then every row for each stage.
func Export(results *Results, exporter Exporter) error {
	for _, stage := range Stages {
		header := NewHeader(stage, results.Config, results.Grid)
		if err := exporter.WriteHeader(stage, header); err != nil {
			return fmt.Errorf("error writing %v header: %w", stage, err)
		}
		for _, row := range results.Rows(stage) {
			if err := exporter.WriteRow(stage, row); err != nil {
				return fmt.Errorf("error writing %v row: %w", stage, err)
			}
		}
	}
	return nil
}

// MultiExporter forwards every call to all its exporters.
type MultiExporter []Exporter

func (m MultiExporter) WriteHeader(stage Stage, header Header) error {
	for _, e := range m {
		if err := e.WriteHeader(stage, header); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiExporter) WriteRow(stage Stage, row Row) error {
	for _, e := range m {
		if err := e.WriteRow(stage, row); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiExporter) Close() error {
	var errs []error
	for _, e := range m {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
