package tracs

import (
	"fmt"
	"math"
	"runtime"
)

type Configuration struct {
	CarrierFile      string    `json:"carrier_file"`
	Depth            float64   `json:"depth"`
	Width            float64   `json:"width"`
	Pitch            float64   `json:"pitch"`
	NNS              int       `json:"nns"`
	Temperature      float64   `json:"temperature"`
	Trapping         float64   `json:"trapping"`
	Fluence          float64   `json:"fluence"`
	NumThreads       int       `json:"num_threads"`
	NCellsX          int       `json:"n_cells_x"`
	NCellsY          int       `json:"n_cells_y"`
	BulkType         string    `json:"bulk_type"`
	ImplantType      string    `json:"implant_type"`
	WaveLength       int       `json:"wavelength"`
	ScanType         string    `json:"scan_type"`
	Capacitance      float64   `json:"capacitance"`
	Dt               float64   `json:"dt"`
	MaxTime          float64   `json:"max_time"`
	VInit            float64   `json:"v_init"`
	DeltaV           float64   `json:"delta_v"`
	VMax             float64   `json:"v_max"`
	VDepletion       float64   `json:"v_depletion"`
	ZInit            float64   `json:"z_init"`
	DeltaZ           float64   `json:"delta_z"`
	ZMax             float64   `json:"z_max"`
	YInit            float64   `json:"y_init"`
	DeltaY           float64   `json:"delta_y"`
	YMax             float64   `json:"y_max"`
	NeffParam        []float64 `json:"neff_param"`
	NeffType         string    `json:"neff_type"`
	AmpRiseTime      float64   `json:"amp_rise_time"`
	OutputDir        string    `json:"output_dir"`
	OutputFormat     string    `json:"output_format"`
	CompressionLevel int       `json:"compression_level"`
	Verbosity        int       `json:"verbosity"`
	NoDB             bool      `json:"no_db"`
	Host             string    `json:"host"`
	User             string    `json:"user"`
	Passwd           string    `json:"pass"`
	DBName           string    `json:"dbname"`
	DetectorName     string    `json:"detector_name"`
}

const (
	FormatHetct = "hetct"
	FormatHDF5  = "hdf5"
	FormatBoth  = "both"
)

// DefaultConfiguration returns the values used for every key missing from
// the configuration file.
func DefaultConfiguration() Configuration {
	return Configuration{
		Depth:            300,
		Width:            80,
		Pitch:            80,
		NNS:              2,
		Temperature:      253,
		Trapping:         3e-9,
		Fluence:          0,
		NumThreads:       runtime.NumCPU(),
		NCellsX:          100,
		NCellsY:          300,
		BulkType:         "n",
		ImplantType:      "p",
		WaveLength:       1064,
		ScanType:         "edge",
		Capacitance:      2e-12,
		Dt:               5e-11,
		MaxTime:          15e-9,
		VInit:            100,
		DeltaV:           0,
		VMax:             100,
		VDepletion:       60,
		ZInit:            0,
		DeltaZ:           10,
		ZMax:             300,
		YInit:            0,
		DeltaY:           0,
		YMax:             0,
		NeffParam:        []float64{0, 0, 0, 0, 0, 0, 0, 0},
		NeffType:         "Trilinear",
		AmpRiseTime:      3e-10,
		OutputDir:        ".",
		OutputFormat:     FormatHetct,
		CompressionLevel: 4,
		Verbosity:        0,
		NoDB:             true,
		Host:             "localhost",
		User:             "tracsreader",
		Passwd:           "readonly",
		DBName:           "TRACS",
	}
}

// TrappingTime is the effective carrier lifetime. A non irradiated detector
// does not trap.
func (c Configuration) TrappingTime() float64 {
	if c.Fluence <= 0 {
		return math.Inf(1)
	}
	return c.Trapping
}

// TimeSteps is the number of samples of every simulated transient.
func (c Configuration) TimeSteps() int {
	return TimeSteps(c.MaxTime, c.Dt)
}

// LateralLimit is the largest lateral offset that still lies on the
// simulated strips.
func (c Configuration) LateralLimit() float64 {
	return float64(2*c.NNS+1) * c.Pitch
}

// Validate reports the first inconsistency that makes a sweep impossible to
// build. Anomalies that can be corrected (thread count) are not errors.
func (c Configuration) Validate() error {
	switch {
	case c.Dt <= 0:
		return &ConfigError{Field: "dt", Reason: "must be positive"}
	case c.MaxTime <= 0:
		return &ConfigError{Field: "max_time", Reason: "must be positive"}
	case c.TimeSteps() == 0:
		return &ConfigError{Field: "max_time", Reason: "shorter than one time step"}
	case c.Capacitance <= 0:
		return &ConfigError{Field: "capacitance", Reason: "must be positive"}
	case c.Depth <= 0:
		return &ConfigError{Field: "depth", Reason: "must be positive"}
	case c.Pitch <= 0:
		return &ConfigError{Field: "pitch", Reason: "must be positive"}
	case c.NNS < 0:
		return &ConfigError{Field: "nns", Reason: "must not be negative"}
	case c.CarrierFile == "":
		return &ConfigError{Field: "carrier_file", Reason: "is empty"}
	}
	axes := []struct {
		field           string
		init, max, step float64
	}{
		{"dt", 0, c.MaxTime, c.Dt},
		{"delta_v", c.VInit, c.VMax, c.DeltaV},
		{"delta_y", c.YInit, c.YMax, c.DeltaY},
		{"delta_z", c.ZInit, c.ZMax, c.DeltaZ},
	}
	points := 1.
	for _, a := range axes {
		n := rawSteps(a.init, a.max, a.step)
		if math.IsNaN(n) || n > MaxSteps {
			return &ConfigError{Field: a.field, Reason: fmt.Sprintf("gives more than %d steps", MaxSteps)}
		}
		if a.field != "dt" {
			points *= n + 1
		}
	}
	if points > MaxSteps {
		return &ConfigError{Field: "delta_z", Reason: fmt.Sprintf("grid has more than %d points", MaxSteps)}
	}
	switch c.OutputFormat {
	case FormatHetct, FormatHDF5, FormatBoth:
	default:
		return &ConfigError{Field: "output_format", Reason: "must be one of hetct, hdf5, both"}
	}
	return nil
}
