package sqlite

import (
	"strings"
	"time"

	"github.com/banshee-data/lidar.perception/internal/timeutil"
)

const (
	maxBusyRetries   = 5
	initialBusyDelay = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock conflict worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or
// maxBusyRetries attempts have been made. The delay doubles after each
// busy attempt.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	delay := initialBusyDelay
	var err error
	for attempt := 1; attempt <= maxBusyRetries; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries {
			clock.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
