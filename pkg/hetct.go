package tracs

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OutputBaseName builds the file name shared by all outputs of a sweep from
// its main settings.
func OutputBaseName(config Configuration) string {
	start, trap := "NOirrad", "NOtrapping"
	if config.Fluence > 0 {
		start = "irrad"
		trap = strconv.Itoa(int(math.Floor(1e9 * config.Trapping)))
	}
	return fmt.Sprintf("%s_dt%dps_%dpF_t%sns_dz%dum_dy%ddV%dV_%dnns_%s",
		start,
		int(math.Floor(config.Dt*1e12)),
		int(math.Floor(config.Capacitance*1e12)),
		trap,
		int(math.Floor(config.DeltaZ)),
		int(math.Floor(config.DeltaY)),
		int(math.Floor(config.DeltaV)),
		config.NNS,
		config.ScanType)
}

// HetctWriter writes one plain text table per stage. Header lines start
// with '#', every other line is "temperature y z voltage samples...".
type HetctWriter struct {
	Filenames map[Stage]string
	files     map[Stage]*os.File
	buffers   map[Stage]*bufio.Writer
	rows      map[Stage]int
}

func NewHetctWriter(dir string, baseName string) (*HetctWriter, error) {
	w := &HetctWriter{
		Filenames: make(map[Stage]string),
		files:     make(map[Stage]*os.File),
		buffers:   make(map[Stage]*bufio.Writer),
		rows:      make(map[Stage]int),
	}
	for _, stage := range Stages {
		filename := filepath.Join(dir, fmt.Sprintf("%s_%s.hetct", baseName, stage))
		file, err := os.Create(filename)
		if err != nil {
			w.Close()
			return nil, &ErrOpenFile{Filename: filename, Err: err}
		}
		w.Filenames[stage] = filename
		w.files[stage] = file
		w.buffers[stage] = bufio.NewWriter(file)
	}
	return w, nil
}

func (w *HetctWriter) WriteHeader(stage Stage, header Header) error {
	buffer, ok := w.buffers[stage]
	if !ok {
		return fmt.Errorf("unknown stage %v", stage)
	}
	lines := []string{
		fmt.Sprintf("# TRACS %s", stage),
		fmt.Sprintf("# Detector: depth %g um, width %g um, pitch %g um, nns %d", header.Depth, header.Width, header.Pitch, header.NNS),
		fmt.Sprintf("# Bulk %s, implant %s", header.BulkType, header.ImplantType),
		fmt.Sprintf("# Temperature %g K, fluence %g, trapping %g s", header.Temperature, header.Fluence, header.Trapping),
		fmt.Sprintf("# Capacitance %g F", header.Capacitance),
		fmt.Sprintf("# Dt %g s, max time %g s, samples %d", header.Dt, header.MaxTime, header.TimeSteps),
		fmt.Sprintf("# Wavelength %d nm, scan %s", header.WaveLength, header.ScanType),
		fmt.Sprintf("# Carriers %s", header.CarrierFile),
		fmt.Sprintf("# Y (mm) %s", joinFloats(header.LateralMM)),
		fmt.Sprintf("# Z (mm) %s", joinFloats(header.DepthMM)),
		fmt.Sprintf("# Voltages (V) %s", joinFloats(header.Voltages)),
		"# temperature y z voltage samples",
	}
	for _, line := range lines {
		if _, err := buffer.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (w *HetctWriter) WriteRow(stage Stage, row Row) error {
	buffer, ok := w.buffers[stage]
	if !ok {
		return fmt.Errorf("unknown stage %v", stage)
	}
	values := make([]float64, 0, len(row.Signal)+4)
	values = append(values, row.Temperature, row.Lateral, row.Depth, row.Voltage)
	values = append(values, row.Signal...)
	if _, err := buffer.WriteString(joinFloats(values) + "\n"); err != nil {
		return err
	}
	w.rows[stage]++
	return nil
}

// Rows returns the number of rows written for a stage.
func (w *HetctWriter) Rows(stage Stage) int {
	return w.rows[stage]
}

func (w *HetctWriter) Close() error {
	var errs []error
	for _, stage := range Stages {
		if buffer, ok := w.buffers[stage]; ok {
			if err := buffer.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("error flushing %v table: %w", stage, err))
			}
		}
		if file, ok := w.files[stage]; ok {
			if err := file.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %v table: %w", stage, err))
			}
		}
	}
	w.buffers = map[Stage]*bufio.Writer{}
	w.files = map[Stage]*os.File{}
	return errors.Join(errs...)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'e', 6, 64)
	}
	return strings.Join(parts, " ")
}
