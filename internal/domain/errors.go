package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks connect, read and poll failures. Always recovered by reconnecting.
	ErrTransport = errors.New("transport failure")
	// ErrMalformed marks a wire unit that could not be decoded. The unit is skipped.
	ErrMalformed = errors.New("malformed record")
	// ErrQueueOverflow marks an item dropped by the dispatch queue.
	ErrQueueOverflow = errors.New("dispatch queue full")
	// ErrNotifier marks a failed alert delivery.
	ErrNotifier = errors.New("notifier failure")
	// ErrNoRecipient is returned by notifiers that have nowhere to deliver.
	ErrNoRecipient = errors.New("no recipient configured")
)

// TransportError wraps a network failure with the operation that hit it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// DecodeError carries the offending input, truncated for logging.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// NewDecodeError truncates input to a loggable size.
func NewDecodeError(input []byte, err error) *DecodeError {
	const max = 96
	s := string(input)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return &DecodeError{Input: s, Err: err}
}

// NotifierError names the notifier that failed.
type NotifierError struct {
	Notifier string
	Err      error
}

func (e *NotifierError) Error() string {
	return fmt.Sprintf("notifier %s: %v", e.Notifier, e.Err)
}

func (e *NotifierError) Unwrap() []error { return []error{ErrNotifier, e.Err} }
