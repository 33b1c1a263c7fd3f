package models

import "fmt"

// ParseError means an input date is not a calendar date
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError means a required input field is absent
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ModelInferenceError wraps any failure of the model capability, timeouts included
type ModelInferenceError struct {
	Err error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

// SinkFailure reports a sink that could not take an event
type SinkFailure struct {
	Sink    int
	SalesID SalesID
	Err     error
}

func (e *SinkFailure) Error() string {
	return fmt.Sprintf("sink %d failed for sales_id %s: %v", e.Sink, e.SalesID, e.Err)
}

func (e *SinkFailure) Unwrap() error { return e.Err }
