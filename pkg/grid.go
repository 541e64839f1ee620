package tracs

import (
	"fmt"
	"math"
)

// DefaultWorkers is used when the configured thread count is not positive.
const DefaultWorkers = 4

// stepTolerance absorbs the rounding of decimal steps, e.g. 0.3/0.1.
const stepTolerance = 1e-9

// MaxSteps bounds the step count of every axis, time included.
const MaxSteps = 10_000_000

// SweepGrid holds the three axes of a sweep. It is built once per sweep and
// never modified afterwards.
type SweepGrid struct {
	Voltages []float64
	Lateral  []float64
	Depths   []float64
}

// Partition is the strided subset of the depth axis assigned to one worker.
// Indices refer to SweepGrid.Depths and are increasing.
type Partition struct {
	Worker  int
	Indices []int
	Depths  []float64
}

func (p Partition) Len() int {
	return len(p.Indices)
}

// rawSteps returns floor((max-init)/delta) before any bound is applied, or 0
// when the axis is degenerate.
func rawSteps(init, max, delta float64) float64 {
	if !(delta > 0) || !(max > init) {
		return 0
	}
	return math.Floor((max-init)/delta + stepTolerance)
}

// steps is rawSteps saturated at MaxSteps.
func steps(init, max, delta float64) int {
	n := rawSteps(init, max, delta)
	if math.IsNaN(n) {
		return 0
	}
	if n > MaxSteps {
		return MaxSteps
	}
	return int(n)
}

// TimeSteps is the number of samples of a transient of length maxTime.
func TimeSteps(maxTime float64, dt float64) int {
	return steps(0, maxTime, dt)
}

func axis(init, max, delta float64) []float64 {
	n := steps(init, max, delta)
	values := make([]float64, n+1)
	for i := range values {
		values[i] = float64(i)*delta + init
	}
	return values
}

func BuildGrid(config Configuration) SweepGrid {
	return SweepGrid{
		Voltages: axis(config.VInit, config.VMax, config.DeltaV),
		Lateral:  axis(config.YInit, config.YMax, config.DeltaY),
		Depths:   axis(config.ZInit, config.ZMax, config.DeltaZ),
	}
}

// Points is the total number of grid points.
func (g SweepGrid) Points() int {
	return len(g.Voltages) * len(g.Lateral) * len(g.Depths)
}

// EffectiveWorkers applies the thread count policy: a non positive request
// falls back to DefaultWorkers and no more workers than depth points are
// started. Both corrections are logged as warnings.
func EffectiveWorkers(requested int, depthPoints int) int {
	workers := requested
	if workers <= 0 {
		message := fmt.Sprintf("Invalid number of threads (%d), using %d", requested, DefaultWorkers)
		logger.Warn(message, "planner")
		workers = DefaultWorkers
	}
	if depthPoints > 0 && workers > depthPoints {
		message := fmt.Sprintf("Number of threads (%d) greater than number of depth points, reducing to %d", workers, depthPoints)
		logger.Warn(message, "planner")
		workers = depthPoints
	}
	return workers
}

// PartitionDepths splits the depth axis across numWorkers by round-robin
// striding. Worker i gets indices i, i+numWorkers, ... so every worker spans
// the whole depth range. numWorkers is clamped to [1, len(depths)].
func PartitionDepths(depths []float64, numWorkers int) []Partition {
	numWorkers = min(max(numWorkers, 1), max(len(depths), 1))
	partitions := make([]Partition, numWorkers)
	remaining := len(depths)
	for i := 0; i < numWorkers; i++ {
		count := (remaining + numWorkers - i - 1) / (numWorkers - i)
		remaining -= count

		partition := Partition{
			Worker:  i,
			Indices: make([]int, count),
			Depths:  make([]float64, count),
		}
		index := i
		for j := 0; j < count; j++ {
			partition.Indices[j] = index
			partition.Depths[j] = depths[index]
			index += numWorkers
		}
		partitions[i] = partition
	}
	return partitions
}
