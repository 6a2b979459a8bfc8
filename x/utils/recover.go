package utils

import (
	"github.com/iov-one/threshold/errors"
)

// Recovered calls fn and turns a panic raised by it into an ErrPanic
// error, so a misbehaving collaborator fails like any other.
func Recovered(fn func() error) (err error) {
	defer errors.Recover(&err)
	return fn()
}
