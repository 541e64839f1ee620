package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	tracs "github.com/next-exp/tracs_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{"carrier_file": "etct.carriers", "v_max": 300, "delta_v": 100}`)

	config, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "etct.carriers", config.CarrierFile)
	assert.Equal(t, 300., config.VMax)
	assert.Equal(t, 100., config.DeltaV)
	assert.Equal(t, runtime.NumCPU(), config.NumThreads)
	assert.Equal(t, tracs.DefaultConfiguration().Depth, config.Depth)
	assert.True(t, config.NoDB)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfiguration(writeFile(t, "bad.json", `{"depth": "thick"}`))
	assert.Error(t, err)
}

func TestPrintConfiguration(t *testing.T) {
	var out bytes.Buffer
	l := Logger{InfoLog: slog.New(NewHandler(&out, nil)), ErrorLog: slog.New(NewHandler(&out, nil))}
	printConfiguration(tracs.DefaultConfiguration(), l)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 32)
	assert.Contains(t, lines[1], "[config] Depth: 300 um")
}

func TestHandlerFormat(t *testing.T) {
	var out bytes.Buffer
	l := Logger{InfoLog: slog.New(NewHandler(&out, nil)), ErrorLog: slog.New(NewHandler(&out, nil))}

	l.Warn("thread count clamped", "planner")
	assert.True(t, strings.HasSuffix(out.String(), "[WARN] [planner] thread count clamped\n"))
}

func TestRunWritesHetct(t *testing.T) {
	dir := t.TempDir()
	config := tracs.DefaultConfiguration()
	config.CarrierFile = writeFile(t, "carriers.txt", "e 1 0 0 0\nh 1 0 0 0\n")
	config.OutputDir = dir
	config.NumThreads = 2
	config.MaxTime = 2e-9
	config.ZInit, config.DeltaZ, config.ZMax = 50, 50, 250
	config.NCellsY = 100

	require.NoError(t, run(config))
	for _, stage := range tracs.Stages {
		assert.FileExists(t, filepath.Join(dir, tracs.OutputBaseName(config)+"_"+stage.String()+".hetct"))
	}
}

func TestNewExporterUnknownFormat(t *testing.T) {
	config := tracs.DefaultConfiguration()
	config.OutputFormat = "csv"
	_, err := newExporter(config)
	assert.Error(t, err)
}
