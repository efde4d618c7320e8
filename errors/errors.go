// Package errors defines the failure taxonomy shared by every stage of a
// transform job.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it without string
// matching.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindCorruptData         Kind = "corrupt_data"
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindInvalidDimension    Kind = "invalid_dimension"
	KindUnsupportedRotation Kind = "unsupported_rotation"
	KindEncodeFailure       Kind = "encode_failure"

	KindOverloaded Kind = "overloaded"
	KindPipeline   Kind = "pipeline"
	KindConfig     Kind = "config"
)

// Sentinel errors, one per Kind.  errors.Is(err, ErrNotFound) holds for any
// *Error of KindNotFound, whatever its cause.
var (
	ErrNotFound            = errors.New("input not found")
	ErrCorruptData         = errors.New("corrupt image data")
	ErrUnsupportedFormat   = errors.New("unsupported image format")
	ErrInvalidDimension    = errors.New("invalid dimension")
	ErrUnsupportedRotation = errors.New("unsupported rotation")
	ErrEncodeFailure       = errors.New("encode failure")

	ErrQueueFull        = errors.New("worker pool queue full")
	ErrProcessorStopped = errors.New("processor stopped")
	ErrPipeline         = errors.New("pipeline failure")
	ErrConfig           = errors.New("invalid configuration")
)

var sentinels = map[Kind]error{
	KindNotFound:            ErrNotFound,
	KindCorruptData:         ErrCorruptData,
	KindUnsupportedFormat:   ErrUnsupportedFormat,
	KindInvalidDimension:    ErrInvalidDimension,
	KindUnsupportedRotation: ErrUnsupportedRotation,
	KindEncodeFailure:       ErrEncodeFailure,
	KindOverloaded:          ErrQueueFull,
	KindPipeline:            ErrPipeline,
	KindConfig:              ErrConfig,
}

// Error is the structured error type used throughout the module.
type Error struct {
	Kind Kind
	Op   string // operation name, e.g. "jpeg.decode"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel registered for the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New creates an Error.  A nil err is replaced by the kind's sentinel.
func New(kind Kind, op string, err error) *Error {
	if err == nil {
		err = sentinels[kind]
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap attaches kind and op to err.  It returns nil for a nil err and leaves
// an existing *Error's kind untouched so the originating cause survives.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Op: op, Err: err}
	}
	return New(kind, op, err)
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
