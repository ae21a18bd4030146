package protocol

import (
	"errors"
	"fmt"
)

// Error taxonomy. Typed errors below report true for errors.Is against
// the matching sentinel.
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrStaleReference   = errors.New("stale reference")
	ErrUnsupportedQuery = errors.New("unsupported query")
	ErrTransportLoss    = errors.New("transport lost")
)

// MalformedMessageError is a payload that does not match its topic.
type MalformedMessageError struct {
	Topic  Topic
	Reason string
	Err    error
}

func (e *MalformedMessageError) Error() string {
	msg := "malformed message"
	if e.Topic != "" {
		msg += " " + string(e.Topic)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedMessageError) Unwrap() error { return e.Err }

// Is implements errors.Is.
func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

// StaleSelectionError is a position that no longer resolves against the
// current snapshot, usually because the tree shrank.
type StaleSelectionError struct {
	Position   ElementPosition
	Directive  *int
	Generation uint64
}

func (e *StaleSelectionError) Error() string {
	if e.Directive != nil {
		return fmt.Sprintf("stale selection: directive %d at [%s] does not exist in snapshot %d",
			*e.Directive, e.Position, e.Generation)
	}
	return fmt.Sprintf("stale selection: element [%s] does not exist in snapshot %d", e.Position, e.Generation)
}

// Is implements errors.Is.
func (e *StaleSelectionError) Is(target error) bool {
	return target == ErrStaleReference
}
