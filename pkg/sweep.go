package tracs

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sweep is one planned scan of the (voltage, lateral, depth) grid. The grid
// and the partitions are fixed at construction.
type Sweep struct {
	config     Configuration
	grid       SweepGrid
	partitions []Partition
	factory    Factory
	convolver  Convolver
}

// NewSweep validates the configuration and plans the sweep. Any error here
// happens before a single worker is started.
func NewSweep(config Configuration, factory Factory, convolver Convolver) (*Sweep, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New("sweep needs a detector factory")
	}
	if convolver == nil {
		return nil, errors.New("sweep needs a convolver")
	}

	grid := BuildGrid(config)
	workers := EffectiveWorkers(config.NumThreads, len(grid.Depths))
	config.NumThreads = workers

	if config.Verbosity > 0 {
		message := fmt.Sprintf("Sweep of %d voltages x %d lateral x %d depth points on %d workers",
			len(grid.Voltages), len(grid.Lateral), len(grid.Depths), workers)
		logger.Info(message, "sweep")
	}

	return &Sweep{
		config:     config,
		grid:       grid,
		partitions: PartitionDepths(grid.Depths, workers),
		factory:    factory,
		convolver:  convolver,
	}, nil
}

func (s *Sweep) Grid() SweepGrid {
	return s.grid
}

func (s *Sweep) Partitions() []Partition {
	return s.partitions
}

func (s *Sweep) Workers() int {
	return len(s.partitions)
}

func (s *Sweep) Configuration() Configuration {
	return s.config
}

// Run starts one goroutine per partition, waits for all of them and merges
// their tables. Every failed worker is reported as a *WorkerError; when any
// worker fails no results are returned.
func (s *Sweep) Run() (*Results, error) {
	start := time.Now()
	workers := make([]*WorkerContext, len(s.partitions))
	failures := make([]error, len(s.partitions))

	var group errgroup.Group
	for i, partition := range s.partitions {
		worker := NewWorkerContext(partition, s.grid, s.config, s.factory, s.convolver)
		workers[i] = worker
		group.Go(func() error {
			if err := worker.RunSweep(); err != nil {
				failures[i] = &WorkerError{Worker: worker.ID, Err: err}
				logger.Error(failures[i].Error())
				return failures[i]
			}
			return nil
		})
	}
	// Wait only returns the first failure; failures holds all of them.
	_ = group.Wait()

	if err := errors.Join(failures...); err != nil {
		return nil, err
	}

	if s.config.Verbosity > 0 {
		message := fmt.Sprintf("Sweep finished in %d ms", time.Since(start).Milliseconds())
		logger.Info(message, "sweep")
	}
	return s.aggregate(workers), nil
}

// aggregate walks the worker tables in (voltage, lateral, worker, local
// depth) order and places each signal at its grid position. It only runs
// after every worker has been joined.
func (s *Sweep) aggregate(workers []*WorkerContext) *Results {
	results := newResults(s.config, s.grid)
	for vi := range s.grid.Voltages {
		for yi := range s.grid.Lateral {
			for _, worker := range workers {
				partition := worker.Partition()
				for local, zi := range partition.Indices {
					results.Temperature[vi][yi][zi] = worker.Temperature()
					results.Raw.Signals[vi][yi][zi] = worker.Raw[vi][yi][local]
					results.Shaped.Signals[vi][yi][zi] = worker.Shaped[vi][yi][local]
					results.Convolved.Signals[vi][yi][zi] = worker.Convolved[vi][yi][local]
				}
			}
		}
	}
	return results
}
