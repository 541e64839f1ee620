package h5

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmbenlloch/go-hdf5"
	tracs "github.com/next-exp/tracs_go/pkg"
)

type HeaderParamHDF5 struct {
	param string
	value float64
}

type MetadataHDF5 struct {
	key  string
	text string
}

type PointHDF5 struct {
	temperature float64
	y           float64
	z           float64
	voltage     float64
}

// stageGroupNames maps every stage to its HDF5 group.
var stageGroupNames = map[tracs.Stage]string{
	tracs.StageRaw:  "RAW",
	tracs.StageRC:   "RC",
	tracs.StageConv: "CONV",
}

type stageWriter struct {
	Group       *hdf5.Group
	HeaderTable *hdf5.Dataset
	Metadata    *hdf5.Dataset
	Points      *hdf5.Dataset
	Waveforms   *hdf5.Dataset
	Counter     int
}

// Writer stores every stage of a sweep in one HDF5 file. Groups are created
// when the header of their stage is written.
type Writer struct {
	File        *hdf5.File
	Filename    string
	Compression int
	stages      map[tracs.Stage]*stageWriter
}

func NewWriter(filename string, compression int) (*Writer, error) {
	hdf5.SetStringLength(STRLEN)

	file, err := openFile(filename)
	if err != nil {
		return nil, &tracs.ErrOpenFile{Filename: filename, Err: err}
	}
	return &Writer{
		File:        file,
		Filename:    filename,
		Compression: compression,
		stages:      make(map[tracs.Stage]*stageWriter),
	}, nil
}

func (w *Writer) WriteHeader(stage tracs.Stage, header tracs.Header) error {
	name, ok := stageGroupNames[stage]
	if !ok {
		return fmt.Errorf("unknown stage %v", stage)
	}
	if _, ok := w.stages[stage]; ok {
		return fmt.Errorf("header of stage %v already written", stage)
	}

	s := &stageWriter{}
	w.stages[stage] = s
	var err error
	if s.Group, err = createGroup(w.File, name); err != nil {
		return err
	}
	if s.HeaderTable, err = createTable(s.Group, "header", HeaderParamHDF5{}, w.Compression); err != nil {
		return err
	}
	if s.Metadata, err = createTable(s.Group, "metadata", MetadataHDF5{}, w.Compression); err != nil {
		return err
	}
	if s.Points, err = createTable(s.Group, "points", PointHDF5{}, w.Compression); err != nil {
		return err
	}
	if s.Waveforms, err = createWaveformsArray(s.Group, "waveforms", header.TimeSteps, w.Compression); err != nil {
		return err
	}

	params := HeaderParams(header)
	if err := writeArrayToTable(s.HeaderTable, &params, 0); err != nil {
		return fmt.Errorf("error writing %v header: %w", stage, err)
	}
	metadata := HeaderMetadata(header)
	if err := writeArrayToTable(s.Metadata, &metadata, 0); err != nil {
		return fmt.Errorf("error writing %v metadata: %w", stage, err)
	}
	return nil
}

func (w *Writer) WriteRow(stage tracs.Stage, row tracs.Row) error {
	s, ok := w.stages[stage]
	if !ok || s.Waveforms == nil {
		return fmt.Errorf("no header written for stage %v", stage)
	}
	point := PointHDF5{
		temperature: row.Temperature,
		y:           row.Lateral,
		z:           row.Depth,
		voltage:     row.Voltage,
	}
	if err := writeEntryToTable(s.Points, point, s.Counter); err != nil {
		return fmt.Errorf("error writing %v point: %w", stage, err)
	}
	signal := row.Signal
	if err := writeWaveform(s.Waveforms, &signal, s.Counter); err != nil {
		return fmt.Errorf("error writing %v waveform: %w", stage, err)
	}
	s.Counter++
	return nil
}

// Rows returns the number of points written for a stage.
func (w *Writer) Rows(stage tracs.Stage) int {
	if s, ok := w.stages[stage]; ok {
		return s.Counter
	}
	return 0
}

func (w *Writer) Close() error {
	var errs []error
	for _, stage := range tracs.Stages {
		s, ok := w.stages[stage]
		if !ok {
			continue
		}
		datasets := map[string]*hdf5.Dataset{
			"header":    s.HeaderTable,
			"metadata":  s.Metadata,
			"points":    s.Points,
			"waveforms": s.Waveforms,
		}
		for name, dataset := range datasets {
			if dataset == nil {
				continue
			}
			if err := dataset.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %v %s: %w", stage, name, err))
			}
		}
		if s.Group != nil {
			if err := s.Group.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %v group: %w", stage, err))
			}
		}
	}
	w.stages = map[tracs.Stage]*stageWriter{}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file %s: %w", w.Filename, err))
		}
		w.File = nil
	}
	return errors.Join(errs...)
}

// HeaderParams returns the numeric fields of a header tagged with their
// hdf5 name.
func HeaderParams(header tracs.Header) []HeaderParamHDF5 {
	t := reflect.TypeOf(header)
	v := reflect.ValueOf(header)
	entries := make([]HeaderParamHDF5, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		paramName := t.Field(i).Tag.Get("hdf5")
		if paramName == "" {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Float64:
			entries = append(entries, HeaderParamHDF5{param: paramName, value: field.Float()})
		case reflect.Int:
			entries = append(entries, HeaderParamHDF5{param: paramName, value: float64(field.Int())})
		}
	}
	return entries
}

// HeaderMetadata returns the text fields and the sweep axes of a header.
func HeaderMetadata(header tracs.Header) []MetadataHDF5 {
	return []MetadataHDF5{
		{key: "stage", text: header.Stage.String()},
		{key: "bulk", text: header.BulkType},
		{key: "implant", text: header.ImplantType},
		{key: "scan", text: header.ScanType},
		{key: "carriers", text: header.CarrierFile},
		{key: "voltages", text: formatAxis(header.Voltages)},
		{key: "y_mm", text: formatAxis(header.LateralMM)},
		{key: "z_mm", text: formatAxis(header.DepthMM)},
	}
}

func formatAxis(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	text := strings.Join(parts, " ")
	if len(values) > 2 && len(text) > STRLEN {
		text = fmt.Sprintf("%g:%g:%d", values[0], values[len(values)-1], len(values))
	}
	return text
}
