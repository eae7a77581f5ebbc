package imaging

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by an Image matches exactly one of these
// with errors.Is.
var (
	// ErrInvalidInput marks a caller mistake: bad path, bad enum value,
	// out-of-range number.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOperation marks a call that does not apply to the image, such
	// as setting a quality on a GIF or using a destroyed image.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupported marks a file whose format cannot be probed or decoded.
	ErrUnsupported = errors.New("unsupported image")

	// ErrOperationFailed marks a backend primitive that refused to run. The
	// concrete *Error names the sub-step.
	ErrOperationFailed = errors.New("operation failed")

	// ErrEncode marks an encoder that did not produce output.
	ErrEncode = errors.New("encode failed")
)

// Error is the concrete error type returned by Image operations.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Op is the public operation, for example "crop" or "open".
	Op string
	// Step is the backend sub-step that failed, when there is one
	// ("allocate color", "create canvas", "copy").
	Step string
	// Msg is the human-readable description.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := "imaging: " + e.Op + ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func invalidInput(op, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func invalidOperation(op, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidOperation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func unsupported(op string, err error, format string, args ...any) *Error {
	return &Error{Kind: ErrUnsupported, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func operationFailed(op, step, msg string, err error) *Error {
	return &Error{Kind: ErrOperationFailed, Op: op, Step: step, Msg: msg, Err: err}
}

func encodeFailed(op, msg string, err error) *Error {
	return &Error{Kind: ErrEncode, Op: op, Msg: msg, Err: err}
}

// FailedStep returns the backend sub-step recorded in err, or "" when err is
// not an *Error or has no step.
func FailedStep(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}
