package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrAlreadyExecuted,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrNotFound, "gone"),
			wantIs: true,
		},
		"successful comparison to a double wrapped error": {
			a:      ErrExecutionFailed,
			b:      Wrap(Wrapf(ErrExecutionFailed, "proposal %d", 3), "execute"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrOverflow, "too big"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"not equal to a wrapped stdlib error": {
			a:      ErrNotFound,
			b:      errors.Wrap(fmt.Errorf("stdlib error"), "wrapped"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"not-nil is not nil": {
			a:      ErrNotFound,
			b:      nil,
			wantIs: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct {
}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestStdlibIs(t *testing.T) {
	err := Wrapf(ErrUnauthorized, "caller %s", "A")
	if !stdlib.Is(err, ErrUnauthorized) {
		t.Fatal("stdlib errors.Is must find the root error")
	}
}

func TestCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want uint32
	}{
		"nil":          {err: nil, want: 0},
		"root":         {err: ErrAlreadyConfirmed, want: 5},
		"wrapped":      {err: Wrap(ErrInsufficientConfirmations, "1 of 2"), want: 8},
		"stdlib":       {err: fmt.Errorf("boom"), want: 1},
		"wrap stdlib":  {err: Wrap(fmt.Errorf("boom"), "ctx"), want: 1},
		"panic":        {err: Wrap(ErrPanic, "oops"), want: 111222},
		"config error": {err: ErrConfiguration.New("empty principals"), want: 2},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicated code must panic")
		}
	}()
	Register(ErrNotFound.Code(), "second not found")
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		panic("action exploded")
	}
	err := run()
	if !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
	if !strings.Contains(err.Error(), "action exploded") {
		t.Fatalf("panic message lost: %q", err)
	}
	if Redact(err) != ErrPanic {
		t.Fatalf("panic details must be redacted")
	}
}

func TestFormatShowsCreationPoint(t *testing.T) {
	err := Wrap(ErrDatabase, "cannot read")
	short := fmt.Sprintf("%v", err)
	if !strings.HasPrefix(short, "cannot read: database [") {
		t.Fatalf("unexpected short format: %q", short)
	}
	if !strings.Contains(short, "errors_test.go") {
		t.Fatalf("creation frame missing: %q", short)
	}
	full := fmt.Sprintf("%+v", err)
	if !strings.Contains(full, "TestFormatShowsCreationPoint") {
		t.Fatalf("stack trace missing test frame: %q", full)
	}
}

func TestWithCause(t *testing.T) {
	cause := Wrap(ErrInsufficientFunds, "balance 3")
	err := WithCause(Wrapf(ErrExecutionFailed, "proposal %d", 7), cause)

	if !ErrExecutionFailed.Is(err) {
		t.Fatal("root error must match")
	}
	if !ErrInsufficientFunds.Is(err) {
		t.Fatal("cause must match")
	}
	if ErrPanic.Is(err) {
		t.Fatal("unrelated error must not match")
	}
	if !stdlib.Is(err, ErrInsufficientFunds) || !stdlib.Is(err, ErrExecutionFailed) {
		t.Fatal("stdlib errors.Is must find both errors")
	}
	if got := Code(err); got != ErrExecutionFailed.Code() {
		t.Fatalf("want code of the root error, got %d", got)
	}
	if got := err.Error(); got != "proposal 7: execution failed: balance 3: insufficient funds" {
		t.Fatalf("unexpected message: %q", got)
	}
	if WithCause(nil, cause) != nil {
		t.Fatal("nil error must stay nil")
	}
	if WithCause(ErrNotFound, nil) != ErrNotFound {
		t.Fatal("nil cause must not wrap")
	}
}
