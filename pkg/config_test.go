package tracs

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Configuration)
	}{
		{"dt", func(c *Configuration) { c.Dt = 0 }},
		{"max_time", func(c *Configuration) { c.MaxTime = -1 }},
		{"max_time", func(c *Configuration) { c.MaxTime = c.Dt / 2 }},
		{"capacitance", func(c *Configuration) { c.Capacitance = 0 }},
		{"depth", func(c *Configuration) { c.Depth = 0 }},
		{"pitch", func(c *Configuration) { c.Pitch = 0 }},
		{"nns", func(c *Configuration) { c.NNS = -1 }},
		{"carrier_file", func(c *Configuration) { c.CarrierFile = "" }},
		{"output_format", func(c *Configuration) { c.OutputFormat = "root" }},
		{"dt", func(c *Configuration) { c.Dt = 1e-30 }},
		{"delta_v", func(c *Configuration) { c.VMax, c.DeltaV = 200, 1e-9 }},
		{"delta_y", func(c *Configuration) { c.YMax, c.DeltaY = 100, 1e-300 }},
		{"delta_z", func(c *Configuration) { c.DeltaZ = 1e-15 }},
		{"delta_z", func(c *Configuration) { c.DeltaZ = 1e-300 }},
		{"delta_z", func(c *Configuration) { c.DeltaZ, c.YMax, c.DeltaY = 0.001, 100, 0.001 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			config := DefaultConfiguration()
			config.CarrierFile = "carriers.txt"
			tt.mutate(&config)

			var configErr *ConfigError
			require.True(t, errors.As(config.Validate(), &configErr))
			assert.Equal(t, tt.field, configErr.Field)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	config := DefaultConfiguration()
	config.CarrierFile = "carriers.txt"
	assert.NoError(t, config.Validate())

	for _, format := range []string{FormatHetct, FormatHDF5, FormatBoth} {
		config.OutputFormat = format
		assert.NoError(t, config.Validate())
	}

	// thread anomalies are corrected, not rejected
	config.NumThreads = -3
	assert.NoError(t, config.Validate())
}

func TestTrappingTime(t *testing.T) {
	config := DefaultConfiguration()
	config.Trapping = 4e-9
	assert.True(t, math.IsInf(config.TrappingTime(), 1))

	config.Fluence = 1e14
	assert.Equal(t, 4e-9, config.TrappingTime())
}

func TestConfigurationDerivedValues(t *testing.T) {
	config := DefaultConfiguration()
	assert.Equal(t, 300, config.TimeSteps())
	assert.Equal(t, 400., config.LateralLimit())
	assert.Positive(t, config.NumThreads)
	assert.Len(t, config.NeffParam, DopingParameters)
}
