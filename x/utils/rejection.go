package utils

import "github.com/iov-one/threshold/errors"

// rejections are the validation failures. They never mutate state and are
// an expected outcome of a well behaving client racing others.
var rejections = []*errors.Error{
	errors.ErrUnauthorized,
	errors.ErrNotFound,
	errors.ErrAlreadyConfirmed,
	errors.ErrNotConfirmed,
	errors.ErrAlreadyExecuted,
	errors.ErrInsufficientConfirmations,
	errors.ErrInput,
	errors.ErrAmount,
}

// IsRejection returns true if the error is a validation failure of the
// request, as opposed to a failure of the wallet or of an executed action.
func IsRejection(err error) bool {
	// the cause of a failed action may be anything
	if errors.ErrExecutionFailed.Is(err) {
		return false
	}
	for _, r := range rejections {
		if r.Is(err) {
			return true
		}
	}
	return false
}
