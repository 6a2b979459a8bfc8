package utils

import (
	"time"

	"github.com/iov-one/threshold"
)

// LogDuration writes information about the time and result of an operation
// to the context logger. Failures are logged as errors, rejections of an
// invalid request as info and successful operations as info, or debug for
// operations with lowPrio set (reads).
func LogDuration(ctx threshold.Context, start time.Time, msg string, err error, lowPrio bool) {
	delta := time.Since(start)
	logger := threshold.GetLogger(ctx).With("duration", delta/time.Microsecond)

	if err != nil {
		logger = logger.With("err", err)
	}

	switch {
	case err != nil && IsRejection(err):
		logger.Info(msg)
	case err != nil:
		logger.Error(msg)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
