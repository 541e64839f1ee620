package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tracs "github.com/next-exp/tracs_go/pkg"
	"github.com/next-exp/tracs_go/pkg/conditions"
	"github.com/next-exp/tracs_go/pkg/detector"
	"github.com/next-exp/tracs_go/pkg/h5"
	"github.com/next-exp/tracs_go/pkg/shaping"
)

var configuration tracs.Configuration

var logger Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	tracs.SetLogger(logger)

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if !configuration.NoDB {
		if err := loadConditions(&configuration); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
	}

	if err := run(configuration); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func loadConditions(config *tracs.Configuration) error {
	dbConn, err := conditions.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()

	detectorConditions, err := conditions.Load(dbConn, config.DetectorName)
	if err != nil {
		return fmt.Errorf("Error reading detector conditions: %w", err)
	}
	detectorConditions.Apply(config)
	if config.Verbosity > 0 {
		message := fmt.Sprintf("Conditions of %s: neff %s %v, trapping %g s, depletion %g V",
			config.DetectorName, config.NeffType, config.NeffParam, config.Trapping, config.VDepletion)
		logger.Info(message, "database")
	}
	return nil
}

func run(config tracs.Configuration) (err error) {
	start := time.Now()
	kernel := shaping.NewKernel(config.Dt, config.AmpRiseTime)
	sweep, err := tracs.NewSweep(config, detector.Factory{}, kernel)
	if err != nil {
		return fmt.Errorf("Error planning sweep: %w", err)
	}

	results, err := sweep.Run()
	if err != nil {
		return fmt.Errorf("Error running sweep: %w", err)
	}

	exporter, err := newExporter(config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := exporter.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	if err := tracs.Export(results, exporter); err != nil {
		return fmt.Errorf("Error writing results: %w", err)
	}

	if config.Verbosity > 0 {
		message := fmt.Sprintf("Total time: %d ms", time.Since(start).Milliseconds())
		logger.Info(message, "main")
	}
	return nil
}

// newExporter opens the writers selected by output_format.
func newExporter(config tracs.Configuration) (tracs.Exporter, error) {
	baseName := tracs.OutputBaseName(config)
	var exporters tracs.MultiExporter

	if config.OutputFormat == tracs.FormatHetct || config.OutputFormat == tracs.FormatBoth {
		writer, err := tracs.NewHetctWriter(config.OutputDir, baseName)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, writer)
	}
	if config.OutputFormat == tracs.FormatHDF5 || config.OutputFormat == tracs.FormatBoth {
		filename := filepath.Join(config.OutputDir, baseName+".h5")
		writer, err := h5.NewWriter(filename, config.CompressionLevel)
		if err != nil {
			return nil, errors.Join(err, exporters.Close())
		}
		exporters = append(exporters, writer)
	}
	if len(exporters) == 0 {
		return nil, fmt.Errorf("unknown output format %q", config.OutputFormat)
	}
	return exporters, nil
}
