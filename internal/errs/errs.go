package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork              = errors.New("network error")
	ErrIntegrity            = errors.New("integrity error")
	ErrRetryExhausted       = errors.New("retry exhausted")
	ErrManifest             = errors.New("manifest error")
	ErrUnsupportedModloader = errors.New("unsupported modloader")
	ErrIO                   = errors.New("io error")
)

// Error ties a failure kind to the artifact it concerns.
type Error struct {
	Kind     error
	Artifact string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Artifact != "" {
		msg += " (" + e.Artifact + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func newf(kind error, artifact string, err error) error {
	return &Error{Kind: kind, Artifact: artifact, Err: err}
}

func Network(artifact string, err error) error   { return newf(ErrNetwork, artifact, err) }
func Integrity(artifact string, err error) error { return newf(ErrIntegrity, artifact, err) }
func IO(artifact string, err error) error        { return newf(ErrIO, artifact, err) }

func Manifestf(format string, args ...any) error {
	return &Error{Kind: ErrManifest, Err: fmt.Errorf(format, args...)}
}

func RetryExhausted(artifact string, attempts int, last error) error {
	return &Error{Kind: ErrRetryExhausted, Artifact: artifact, Err: fmt.Errorf("gave up after %d attempts: %w", attempts, last)}
}

func UnsupportedModloader(name string) error {
	return &Error{Kind: ErrUnsupportedModloader, Artifact: name}
}

// Retryable reports whether the executor may try the step again.
func Retryable(err error) bool {
	if errors.Is(err, ErrRetryExhausted) || errors.Is(err, ErrManifest) || errors.Is(err, ErrIO) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrIntegrity)
}
