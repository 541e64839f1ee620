package tracs

import "fmt"

// ErrOpenFile represents an error when opening an output file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ConfigError reports a configuration value that prevents building a sweep.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// WorkerError is the failure of a single worker, observed when the sweep
// joins its workers.
type WorkerError struct {
	Worker int
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// ErrInvalidDoping is returned by detectors when a doping profile does not
// have the expected number of parameters. The previous profile stays active.
type ErrInvalidDoping struct {
	Got int
}

func (e *ErrInvalidDoping) Error() string {
	return fmt.Sprintf("doping profile needs %d parameters, got %d", DopingParameters, e.Got)
}
