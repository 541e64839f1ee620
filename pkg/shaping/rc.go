// Package shaping holds the signal conditioning applied to every simulated
// transient: the RC low-pass filter and the readout amplifier convolution.
package shaping

// LoadResistance is the input impedance of the readout in Ohms.
const LoadResistance = 50.

// RCShape applies a single pole low-pass filter with time constant
// LoadResistance*capacitance to raw. The first sample of the output is always
// zero. raw is not modified.
func RCShape(raw []float64, capacitance float64, dt float64) []float64 {
	shaped := make([]float64, len(raw))
	alpha := dt / (LoadResistance*capacitance + dt)
	for t := 1; t < len(raw); t++ {
		shaped[t] = shaped[t-1] + alpha*(raw[t]-shaped[t-1])
	}
	return shaped
}
