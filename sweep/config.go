package main

import (
	"encoding/json"
	"fmt"
	"os"

	tracs "github.com/next-exp/tracs_go/pkg"
)

// LoadConfiguration reads a JSON file on top of the default values, so any
// missing key keeps its default.
func LoadConfiguration(filename string) (tracs.Configuration, error) {
	config := tracs.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config tracs.Configuration, logger tracs.Logger) {
	logger.Info(fmt.Sprintf("Carrier file: %s", config.CarrierFile), "config")
	logger.Info(fmt.Sprintf("Depth: %g um", config.Depth), "config")
	logger.Info(fmt.Sprintf("Width: %g um", config.Width), "config")
	logger.Info(fmt.Sprintf("Pitch: %g um", config.Pitch), "config")
	logger.Info(fmt.Sprintf("Neighbour strips: %d", config.NNS), "config")
	logger.Info(fmt.Sprintf("Temperature: %g K", config.Temperature), "config")
	logger.Info(fmt.Sprintf("Trapping: %g s", config.Trapping), "config")
	logger.Info(fmt.Sprintf("Fluence: %g", config.Fluence), "config")
	logger.Info(fmt.Sprintf("Number of threads: %d", config.NumThreads), "config")
	logger.Info(fmt.Sprintf("Cells: %d x %d", config.NCellsX, config.NCellsY), "config")
	logger.Info(fmt.Sprintf("Bulk type: %s", config.BulkType), "config")
	logger.Info(fmt.Sprintf("Implant type: %s", config.ImplantType), "config")
	logger.Info(fmt.Sprintf("Wavelength: %d nm", config.WaveLength), "config")
	logger.Info(fmt.Sprintf("Scan type: %s", config.ScanType), "config")
	logger.Info(fmt.Sprintf("Capacitance: %g F", config.Capacitance), "config")
	logger.Info(fmt.Sprintf("Dt: %g s", config.Dt), "config")
	logger.Info(fmt.Sprintf("Max time: %g s", config.MaxTime), "config")
	logger.Info(fmt.Sprintf("Voltage: %g to %g step %g V", config.VInit, config.VMax, config.DeltaV), "config")
	logger.Info(fmt.Sprintf("Depletion voltage: %g V", config.VDepletion), "config")
	logger.Info(fmt.Sprintf("Z: %g to %g step %g um", config.ZInit, config.ZMax, config.DeltaZ), "config")
	logger.Info(fmt.Sprintf("Y: %g to %g step %g um", config.YInit, config.YMax, config.DeltaY), "config")
	logger.Info(fmt.Sprintf("Neff parameters: %v", config.NeffParam), "config")
	logger.Info(fmt.Sprintf("Neff type: %s", config.NeffType), "config")
	logger.Info(fmt.Sprintf("Amplifier rise time: %g s", config.AmpRiseTime), "config")
	logger.Info(fmt.Sprintf("Output dir: %s", config.OutputDir), "config")
	logger.Info(fmt.Sprintf("Output format: %s", config.OutputFormat), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Detector name: %s", config.DetectorName), "config")
}
