/*
Package errors implements the error taxonomy of the threshold wallet.

The idea is to reuse as many errors from this package as possible and define custom package
errors only when absolutely necessary.

If you want to register a custom error - use Register(code, description).
For reusing errors - use Errxxx.New and Errxxx.Newf.
Code allows to distinguish types of errors on the client side and act accordingly,
the command line client uses it as the process exit status.

Validation failures (ErrUnauthorized, ErrNotFound, ErrAlreadyConfirmed,
ErrNotConfirmed, ErrAlreadyExecuted, ErrInsufficientConfirmations) never
mutate state. ErrExecutionFailed is the only error returned after state
was touched and it guarantees that the touched state was rolled back.

There is also support for stacktraces. Please ensure you create the custom error using
ErrXyz.New("...") or errors.Wrap(err, "...") at the point of creation to ensure we attach
a stacktrace. If you wrap multiple times, we only record the first wrap with the stacktrace.

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context for the error
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
