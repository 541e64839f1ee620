package tracs

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/next-exp/tracs_go/pkg/shaping"
	"gonum.org/v1/gonum/floats"
)

// convolutionMu serialises every call to a Convolver across all workers.
var convolutionMu sync.Mutex

// PointKey names the artifacts of one grid point. Local is the position of
// the point in the worker's own iteration order, so keys are unique without
// any shared counter.
type PointKey struct {
	Worker int
	Local  int
}

func (k PointKey) String() string {
	return fmt.Sprintf("conv_%d_%d", k.Worker, k.Local)
}

// WorkerContext runs the part of a sweep assigned to one worker. Everything
// it holds is private to the goroutine that calls RunSweep.
type WorkerContext struct {
	ID        int
	config    Configuration
	grid      SweepGrid
	partition Partition
	factory   Factory
	convolver Convolver

	detector  Detector
	transport CarrierTransport

	nTimeSteps int
	raw        []float64
	shaped     []float64
	convolved  []float64

	// Output tables indexed [voltage][lateral][local depth].
	Raw       [][][][]float64
	Shaped    [][][][]float64
	Convolved [][][][]float64

	temperature float64
}

func NewWorkerContext(partition Partition, grid SweepGrid, config Configuration,
	factory Factory, convolver Convolver) *WorkerContext {
	return &WorkerContext{
		ID:         partition.Worker,
		config:     config,
		grid:       grid,
		partition:  partition,
		factory:    factory,
		convolver:  convolver,
		nTimeSteps: config.TimeSteps(),
	}
}

func (w *WorkerContext) Partition() Partition {
	return w.partition
}

// Temperature is the detector temperature read at the end of the sweep.
func (w *WorkerContext) Temperature() float64 {
	return w.temperature
}

// RunSweep iterates voltage, lateral offset and the worker's depth partition
// in that order. Fields are recomputed once per voltage, before any point at
// that voltage. A panic is recovered and returned as an error.
func (w *WorkerContext) RunSweep() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	defer func() {
		if closeErr := w.release(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	if err := w.open(); err != nil {
		return err
	}

	w.allocateTables()
	local := 0
	for vi, voltage := range w.grid.Voltages {
		w.detector.SetVoltage(voltage, w.config.VDepletion)
		if err := w.detector.RecomputeFields(); err != nil {
			return fmt.Errorf("computing fields at %g V: %w", voltage, err)
		}

		for yi, y := range w.grid.Lateral {
			w.checkLateral(y)
			for zi, z := range w.partition.Depths {
				if w.config.Verbosity > 1 {
					message := fmt.Sprintf("Height %g of %g || Y Position %g of %g || Voltage %g of %g",
						z, last(w.grid.Depths), y, last(w.grid.Lateral), voltage, last(w.grid.Voltages))
					logger.Info(message, fmt.Sprintf("worker %d", w.ID))
				}
				key := PointKey{Worker: w.ID, Local: local}
				if err := w.simulatePoint(y, z, key); err != nil {
					return fmt.Errorf("point V=%g y=%g z=%g: %w", voltage, y, z, err)
				}
				w.Raw[vi][yi][zi] = w.raw
				w.Shaped[vi][yi][zi] = w.shaped
				w.Convolved[vi][yi][zi] = w.convolved
				local++
			}
		}
	}
	w.temperature = w.detector.Temperature()
	return nil
}

// open builds the detector and transport owned by this worker.
func (w *WorkerContext) open() error {
	detector, err := w.factory.NewDetector(w.config)
	if err != nil {
		return fmt.Errorf("creating detector: %w", err)
	}
	w.detector = detector

	if err := detector.SetDopingProfile(w.config.NeffParam, w.config.NeffType); err != nil {
		message := fmt.Errorf("worker %d: keeping previous doping profile: %w", w.ID, err)
		logger.Error(message.Error())
	}
	detector.SetTrappingTime(w.config.TrappingTime())

	transport, err := w.factory.NewTransport(detector, w.config)
	if err != nil {
		return fmt.Errorf("creating carrier transport: %w", err)
	}
	w.transport = transport
	if err := transport.LoadCarrierDistribution(w.config.CarrierFile); err != nil {
		return fmt.Errorf("loading carriers: %w", err)
	}
	return nil
}

func (w *WorkerContext) release() error {
	var errs []error
	if closer, ok := w.transport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing carrier transport: %w", err))
		}
	}
	if closer, ok := w.detector.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing detector: %w", err))
		}
	}
	w.transport = nil
	w.detector = nil
	return errors.Join(errs...)
}

func (w *WorkerContext) allocateTables() {
	nv, ny, nz := len(w.grid.Voltages), len(w.grid.Lateral), w.partition.Len()
	w.Raw = newTable(nv, ny, nz)
	w.Shaped = newTable(nv, ny, nz)
	w.Convolved = newTable(nv, ny, nz)
}

func newTable(nv, ny, nz int) [][][][]float64 {
	table := make([][][][]float64, nv)
	for v := range table {
		table[v] = make([][][]float64, ny)
		for y := range table[v] {
			table[v][y] = make([][]float64, nz)
		}
	}
	return table
}

// checkLateral warns about a laser spot outside the strips. The offset is
// applied anyway.
func (w *WorkerContext) checkLateral(y float64) {
	if math.Abs(y) > w.config.LateralLimit() {
		message := fmt.Sprintf("Lateral offset %g is probably outside the detector (limit %g)", y, w.config.LateralLimit())
		logger.Warn(message, fmt.Sprintf("worker %d", w.ID))
	}
}

// simulatePoint computes raw, shaped and convolved signals of one point. The
// three are replaced together, so the cached shaped and convolved signals
// always derive from the cached raw one.
func (w *WorkerContext) simulatePoint(y float64, z float64, key PointKey) error {
	electron, hole, err := w.transport.SimulateDrift(w.config.Dt, w.config.MaxTime, y, z)
	if err != nil {
		return fmt.Errorf("simulating drift: %w", err)
	}
	if len(electron) != w.nTimeSteps || len(hole) != w.nTimeSteps {
		return fmt.Errorf("carrier transport returned %d/%d samples, expected %d",
			len(electron), len(hole), w.nTimeSteps)
	}

	raw := make([]float64, w.nTimeSteps)
	floats.AddTo(raw, electron, hole)
	shaped := shaping.RCShape(raw, w.config.Capacitance, w.config.Dt)

	convolved, err := w.convolve(raw, key)
	if err != nil {
		return fmt.Errorf("convolving %s: %w", key, err)
	}
	if len(convolved) != w.nTimeSteps {
		return fmt.Errorf("convolution %s returned %d samples, expected %d", key, len(convolved), w.nTimeSteps)
	}

	w.raw, w.shaped, w.convolved = raw, shaped, convolved
	return nil
}

func (w *WorkerContext) convolve(raw []float64, key PointKey) ([]float64, error) {
	convolutionMu.Lock()
	defer convolutionMu.Unlock()
	return w.convolver.Convolve(raw, w.config.Capacitance, key.String())
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
