package tracs

// DopingParameters is the length of every doping profile vector.
const DopingParameters = 8

// Detector is the field solver of one simulated device. A Detector is owned by
// a single worker and is never called concurrently.
type Detector interface {
	SetVoltage(bias float64, depletion float64)
	// RecomputeFields solves potential and field for the current bias and
	// doping. It must run after any change of either.
	RecomputeFields() error
	SetDopingProfile(params []float64, kind string) error
	SetTrappingTime(t float64)
	Temperature() float64
}

// CarrierTransport drifts a carrier distribution through its detector and
// returns the induced electron and hole currents, both of
// floor(maxTime/dt) samples.
type CarrierTransport interface {
	LoadCarrierDistribution(path string) error
	SimulateDrift(dt float64, maxTime float64, yOffset float64, zOffset float64) (electron []float64, hole []float64, err error)
}

// Convolver applies the readout amplifier to a raw transient. Implementations
// are not assumed to be reentrant; workers serialise every call.
type Convolver interface {
	Convolve(raw []float64, capacitance float64, tag string) ([]float64, error)
}

// Factory builds the per-worker physics handles. It is called from inside
// each worker goroutine, so every worker gets its own instances.
type Factory interface {
	NewDetector(config Configuration) (Detector, error)
	NewTransport(detector Detector, config Configuration) (CarrierTransport, error)
}
