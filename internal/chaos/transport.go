package chaos

import (
	"context"
	"io"
)

// TimeoutError is returned by a dropped read. It looks like a read deadline
// expiring, so session code retries it.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "chaos: injected read timeout" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }

// Transport wraps a session byte stream. Dropped reads surface as timeouts;
// dropped writes report success without reaching the wire.
type Transport struct {
	inner io.ReadWriter
	chaos *Chaos
}

// Wrap injects c's faults into inner.
func Wrap(inner io.ReadWriter, c *Chaos) *Transport {
	return &Transport{inner: inner, chaos: c}
}

// Read drops or delays according to the read profile.
func (t *Transport) Read(p []byte) (int, error) {
	if t.chaos.MaybeDrop(OpRead) {
		return 0, TimeoutError{}
	}
	if err := t.chaos.MaybeDelay(context.Background(), OpRead); err != nil {
		return 0, err
	}
	return t.inner.Read(p)
}

// Write delays, then drops or forwards.
func (t *Transport) Write(p []byte) (int, error) {
	if err := t.chaos.MaybeDelay(context.Background(), OpWrite); err != nil {
		return 0, err
	}
	if t.chaos.MaybeDrop(OpWrite) {
		return len(p), nil
	}
	return t.inner.Write(p)
}

// Close closes the wrapped stream if it can be closed.
func (t *Transport) Close() error {
	if c, ok := t.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
