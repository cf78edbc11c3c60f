package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrNotRentExempt is returned when an account's storage balance is
	// below the rent-exempt threshold required to persist it.
	ErrNotRentExempt = Register(2, "storage balance below rent-exempt threshold")

	// ErrInsufficientFunds is returned when an account's storage balance
	// cannot cover the requested operation.
	ErrInsufficientFunds = Register(3, "insufficient funds")

	// ErrInvalidOwner is returned when an owner identity is not acceptable
	// for the requested operation.
	ErrInvalidOwner = Register(4, "invalid owner")

	// ErrInsufficientWeight is returned when the combined weight of the
	// signing owners does not clear the configured threshold.
	ErrInsufficientWeight = Register(5, "insufficient signature weight")

	// ErrInvalidInstruction is returned when a request payload cannot be
	// decoded or violates the operation's rules.
	ErrInvalidInstruction = Register(6, "invalid instruction")

	// ErrInvalidState is returned when the record state does not permit
	// the requested operation.
	ErrInvalidState = Register(7, "invalid state for requested operation")

	// ErrIncorrectProgram is returned when a record account is not owned
	// by this program and therefore must not be modified by it.
	ErrIncorrectProgram = Register(8, "account not owned by this program")

	// ErrUninitialized is returned when an operation requires an
	// initialized record.
	ErrUninitialized = Register(9, "uninitialized account")

	// ErrAlreadyInitialized is returned when a one-shot initialization is
	// attempted a second time.
	ErrAlreadyInitialized = Register(10, "account already initialized")

	// ErrMissingSignature is returned when the host did not authenticate
	// an identity that the operation requires to have signed.
	ErrMissingSignature = Register(11, "missing required signature")

	// ErrInvalidAccountData is returned when record bytes cannot be
	// decoded, or a write would not fit the record's fixed capacity.
	ErrInvalidAccountData = Register(12, "invalid account data")

	// ErrPanic is only set when we recover from a panic, so we know to
	// redact potentially sensitive system info.
	ErrPanic = Register(111222, "panic")
)

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// All error kinds surfaced by this module are declared in this package. This
// function ensures that no error code is used twice. Attempt to reuse an
// error code results in panic.
//
// Use this function only during a program startup phase.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code: code,
		desc: description,
	}
	usedCodes[err.code] = err
	return err
}

// usedCodes is keeping track of used codes to ensure their uniqueness. No two
// error instances should share the same error code.
var usedCodes = map[uint32]*Error{
	internalCode: nil, // Reserved for errors originating outside of this module.
}

// Error represents a root error.
//
// Each error instance created during the runtime should wrap one of the
// declared root errors. This allows error tests and returning all errors to
// the host in a safe manner, as a stable numeric code.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

// Code returns the stable numeric code of this error kind.
func (e Error) Code() uint32 {
	return e.code
}

// New returns a new error. Returned instance is having the root cause set to
// this error. Below two lines are equal
//   e.New("my description")
//   Wrap(e, "my description")
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is basically New with formatting capabilities.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is check if given error instance is of a given kind/type. This involves
// unwrapping given error using the Cause method if available.
func (kind *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}

// Wrap extends given error with an additional information.
//
// If the wrapped error does not provide Code method (ie. stdlib errors), it
// will be labeled as an internal error at the boundary.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping a error returned at the end of a function.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf extends given error with an additional information.
//
// This function works like Wrap function with additional functionality of
// formatting the input as specified.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	// This error layer description.
	msg string
	// The underlying error that triggered this one.
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover captures a panic and stop its propagation. If panic happens it is
// transformed into a ErrPanic instance and assigned to given error. Call this
// function using defer in order to work as expected.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// stackTrace returns the first found stack trace frame carried by given error
// or any wrapped error. It returns nil if no stack trace is found.
func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// causer is an interface implemented by an error that supports wrapping. Use
// it to test if an error wraps another error instance.
type causer interface {
	Cause() error
}
