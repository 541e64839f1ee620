package shaping

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Kernel convolves transients with the transfer function of the readout
// amplifier. The impulse response is a CR-RC shape
//
//	h(t) = t/tau^2 * exp(-t/tau),  tau = LoadResistance*C + riseTime
//
// normalised to unit area, so the integral of the signal is preserved.
//
// A Kernel caches FFT plans between calls and must not be used from several
// goroutines at the same time.
type Kernel struct {
	Dt       float64
	RiseTime float64
	plans    map[int]*plan
}

type plan struct {
	fft   *fourier.FFT
	scale float64
}

func NewKernel(dt float64, riseTime float64) *Kernel {
	return &Kernel{
		Dt:       dt,
		RiseTime: riseTime,
		plans:    make(map[int]*plan),
	}
}

// Response returns the first n samples of the normalised impulse response for
// the given capacitance.
func (k *Kernel) Response(capacitance float64, n int) []float64 {
	response := make([]float64, n)
	if n == 0 {
		return response
	}
	tau := LoadResistance*capacitance + k.RiseTime
	if tau > 0 {
		for i := range response {
			t := float64(i) * k.Dt
			response[i] = t / (tau * tau) * math.Exp(-t/tau)
		}
	}
	sum := floats.Sum(response)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		// Time constant far below the sampling step, the amplifier is transparent
		for i := range response {
			response[i] = 0
		}
		response[0] = 1
		return response
	}
	floats.Scale(1/sum, response)
	return response
}

// Convolve returns the linear convolution of raw with the amplifier response,
// truncated to len(raw). tag identifies the point being processed and is
// only used in error messages.
func (k *Kernel) Convolve(raw []float64, capacitance float64, tag string) ([]float64, error) {
	n := len(raw)
	if n == 0 {
		return []float64{}, nil
	}
	if capacitance <= 0 {
		return nil, fmt.Errorf("convolution %s: capacitance must be positive, got %g", tag, capacitance)
	}

	size := 2
	for size < 2*n {
		size *= 2
	}
	p := k.plan(size)

	paddedRaw := make([]float64, size)
	copy(paddedRaw, raw)
	paddedResponse := make([]float64, size)
	copy(paddedResponse, k.Response(capacitance, n))

	coeffRaw := p.fft.Coefficients(nil, paddedRaw)
	coeffResponse := p.fft.Coefficients(nil, paddedResponse)
	for i := range coeffRaw {
		coeffRaw[i] *= coeffResponse[i]
	}
	sequence := p.fft.Sequence(nil, coeffRaw)

	convolved := make([]float64, n)
	for i := range convolved {
		convolved[i] = sequence[i] * p.scale
	}
	return convolved, nil
}

// plan returns the cached FFT of the given size together with the factor
// that turns Sequence(Coefficients(x)) back into x.
func (k *Kernel) plan(size int) *plan {
	if p, ok := k.plans[size]; ok {
		return p
	}
	fft := fourier.NewFFT(size)
	impulse := make([]float64, size)
	impulse[0] = 1
	roundTrip := fft.Sequence(nil, fft.Coefficients(nil, impulse))
	p := &plan{fft: fft, scale: 1 / roundTrip[0]}
	k.plans[size] = p
	return p
}
