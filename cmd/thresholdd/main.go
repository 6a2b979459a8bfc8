/*
thresholdd operates a threshold wallet kept in a local sqlite database.

The acting principal is given with --as, as a hex or bech32 encoded
address. Authenticating it is left to whoever runs the command. The
process exit code is the code of the returned error.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/iov-one/threshold/errors"
)

func main() {
	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report writes err for the user and returns the exit status. Details of
// recovered panics are not shown.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", errors.Redact(err))
	return exitCode(err)
}

// exitCode maps an error to a process exit status. Codes that do not fit
// into an exit status are reported as a generic failure.
func exitCode(err error) int {
	code := int(errors.Code(err))
	if code <= 0 || code > 125 {
		return 1
	}
	return code
}
