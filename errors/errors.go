package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is returned when the wallet is initialized with an
	// invalid principal set or threshold. It is a startup time failure.
	ErrConfiguration = Register(2, "invalid configuration")

	// ErrUnauthorized is used whenever the caller is not one of the
	// registered principals.
	ErrUnauthorized = Register(3, "unauthorized")

	// ErrNotFound is used when a requested proposal does not exist.
	ErrNotFound = Register(4, "not found")

	// ErrAlreadyConfirmed is returned when a principal confirms a proposal
	// that it has an active confirmation on.
	ErrAlreadyConfirmed = Register(5, "already confirmed")

	// ErrNotConfirmed is returned when a principal revokes a confirmation
	// it never gave.
	ErrNotConfirmed = Register(6, "not confirmed")

	// ErrAlreadyExecuted is returned for any mutation of a proposal that
	// was executed or whose execution is in flight.
	ErrAlreadyExecuted = Register(7, "already executed")

	// ErrInsufficientConfirmations is returned when execution is requested
	// before the threshold is reached.
	ErrInsufficientConfirmations = Register(8, "insufficient confirmations")

	// ErrExecutionFailed is returned when the external action of a
	// proposal failed. All state changes of the attempt are rolled back.
	ErrExecutionFailed = Register(9, "execution failed")

	// ErrInput stands for general input problems indication.
	ErrInput = Register(10, "invalid input")

	// ErrAmount stands for an invalid amount of value.
	ErrAmount = Register(11, "invalid amount")

	// ErrInsufficientFunds is returned when an account balance cannot
	// cover a transfer.
	ErrInsufficientFunds = Register(12, "insufficient funds")

	// ErrOverflow is returned when a computation cannot be completed
	// because the result value exceeds the type.
	ErrOverflow = Register(13, "an operation cannot be completed due to value overflow")

	// ErrDatabase is returned when the underlying storage failed.
	ErrDatabase = Register(14, "database")

	// ErrEncoding is returned when a model cannot be serialized or
	// deserialized.
	ErrEncoding = Register(15, "encoding")

	// ErrInvariant is returned when stored data breaks one of the ledger
	// invariants. It signals corruption, never a caller mistake.
	ErrInvariant = Register(16, "invariant violated")

	// ErrPanic is only set when we recover from a panic, so we know to
	// redact potentially sensitive system info
	ErrPanic = Register(111222, "panic")
)

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// Popular root errors are declared in this package, but extensions may want to
// declare custom codes. This function ensures that no error code is used
// twice. Attempt to reuse an error code results in panic.
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
	1: nil, // Error code 1 is restricted for errors not declared in this package.
}

// Error represents a root error.
//
// Each instance created during the runtime should wrap one of the declared
// root errors. This allows error tests and returning all errors to the
// client in a safe manner.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

// Code returns the numeric code this root error was registered with.
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

// Newf is basically New with formatting capabilities
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

		if m, ok := err.(multiUnwrapper); ok {
			for _, e := range m.Unwrap() {
				if kind.Is(e) {
					return true
				}
			}
			return false
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}

// Code returns the code of the root error that given error wraps. Errors
// that do not wrap any of the registered root errors return code 1.
func Code(err error) uint32 {
	if err == nil {
		return 0
	}
	for {
		if e, ok := err.(*Error); ok {
			return e.code
		}
		c, ok := err.(causer)
		if !ok {
			return 1
		}
		err = c.Cause()
	}
}

// Wrap extends given error with an additional information.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping a error returned at the end of a function
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
// This function works like Wrap function with additional funtionality of
// formatting the input as specified.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
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

// Unwrap allows the standard library errors.Is and errors.As to walk the
// chain as well.
func (e *wrappedError) Unwrap() error {
	return e.parent
}

// WithCause attaches the error that triggered err to it. Cause and Code
// follow err, while Is matches both err and the attached cause.
//
// If err is nil, this returns nil. If cause is nil, err is returned
// unchanged.
func WithCause(err, cause error) error {
	if err == nil || cause == nil {
		return err
	}
	return &causedError{err: err, cause: cause}
}

type causedError struct {
	err   error
	cause error
}

func (e *causedError) Error() string {
	return fmt.Sprintf("%s: %s", e.err.Error(), e.cause.Error())
}

func (e *causedError) Cause() error {
	return e.err
}

// Unwrap exposes both errors to the standard library errors.Is and
// errors.As.
func (e *causedError) Unwrap() []error {
	return []error{e.err, e.cause}
}

// Recover captures a panic and stop its propagation. If panic happens it is
// transformed into a ErrPanic instance and assigned to given error. Call this
// function using defer in order to work as expected.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// Redact will replace all panic errors with a generic message.
func Redact(err error) error {
	if ErrPanic.Is(err) {
		return ErrPanic
	}
	return err
}

// causer is an interface implemented by an error that supports wrapping. Use
// it to test if an error wraps another error instance.
type causer interface {
	Cause() error
}

type multiUnwrapper interface {
	Unwrap() []error
}
