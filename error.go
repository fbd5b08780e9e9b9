package recs

import "fmt"

// UnknownStageError indicates a pipeline named a stage that the registry
// cannot resolve. It is raised at compilation time, not when the
// pipeline is built: a pipeline may be declared before the set of legal
// stage names is known.
type UnknownStageError struct {
	Name Name
}

// Error implements the error interface.
func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Name)
}

// InputRequiredError indicates the head stage of a compiled chain wants
// pushed input but the run was given none.
type InputRequiredError struct {
	Stage Name
}

// Error implements the error interface.
func (e *InputRequiredError) Error() string {
	return fmt.Sprintf("stage %q requires input and none was supplied", e.Stage)
}

// RegistrationError indicates a host function could not be registered
// while bridging it into a stage argument. Bridging happens at
// compilation time, before any record flows, so this never surfaces
// mid-stream.
type RegistrationError struct {
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register host function: %v", e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure reading from an input source or writing to a
// destination, including the runner's internal buffer for text-producing
// pipelines. Op names the operation (open, read, write, flush) and
// Target the source or destination it failed against.
type IOError struct {
	Op     string
	Target string
	Err    error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *IOError) Unwrap() error {
	return e.Err
}
