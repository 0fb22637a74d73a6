package session

import (
	"errors"
	"net"
	"os"
	"syscall"
)

var (
	// ErrConnection marks a transport failure other than a read timeout.
	ErrConnection = errors.New("connection error")

	// ErrRetryable marks a read that timed out or would block.
	ErrRetryable = errors.New("retryable read error")

	// ErrLogonTimeout is returned when no logon acknowledgment arrives within the attempt budget.
	ErrLogonTimeout = errors.New("logon not acknowledged")

	// ErrLogonRejected is returned when the counterparty answers the logon with a logout.
	ErrLogonRejected = errors.New("logon rejected")
)

// IsRetryable reports whether err is a would-block or timed-out read.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRetryable) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
