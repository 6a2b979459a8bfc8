package assert

import (
	"fmt"
	"testing"

	"github.com/iov-one/threshold/errors"
)

type recorder struct {
	failed bool
}

func (r *recorder) Helper()                       {}
func (r *recorder) Fatal(...interface{})          { r.failed = true }
func (r *recorder) Fatalf(string, ...interface{}) { r.failed = true }

func TestIsErr(t *testing.T) {
	cases := map[string]struct {
		want, got error
		fail      bool
	}{
		"both nil":          {want: nil, got: nil},
		"want nil":          {want: nil, got: errors.ErrNotFound, fail: true},
		"same root":         {want: errors.ErrNotFound, got: errors.Wrap(errors.ErrNotFound, "id 3")},
		"different root":    {want: errors.ErrNotFound, got: errors.ErrUnauthorized, fail: true},
		"missing error":     {want: errors.ErrNotFound, got: nil, fail: true},
		"typed nil want":    {want: (*errors.Error)(nil), got: nil},
		"typed nil failing": {want: (*errors.Error)(nil), got: errors.ErrInput, fail: true},
		"plain error match": {want: fmt.Errorf("x"), got: fmt.Errorf("x"), fail: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var r recorder
			IsErr(&r, tc.want, tc.got)
			if r.failed != tc.fail {
				t.Fatalf("want failure %v, got %v", tc.fail, r.failed)
			}
		})
	}
}

func TestNilAndEqual(t *testing.T) {
	var r recorder
	Nil(&r, (*int)(nil))
	Equal(&r, []int{1}, []int{1})
	if r.failed {
		t.Fatal("unexpected failure")
	}
	Nil(&r, 3)
	if !r.failed {
		t.Fatal("non nil value must fail")
	}
}
