package service

import "fmt"

// PersistenceError marks a failed store write. It is fatal: the invocation
// that hit it aborts and the error propagates to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PipelineError wraps any stage failure with the stage name for diagnostics.
type PipelineError struct {
	Workflow string
	Stage    string
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s pipeline failed at stage %q: %v", e.Workflow, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
