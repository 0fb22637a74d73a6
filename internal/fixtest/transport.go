// Package fixtest provides a scripted transport, a fake clock and message
// builders for exercising session code without a network.
package fixtest

import (
	"errors"
	"sync"

	"github.com/ismaiel54/fix-order-client/internal/fix"
)

// TimeoutError is what an exhausted Transport returns from Read.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "i/o timeout" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }

// ErrClosed is returned by Read and Write after Close.
var ErrClosed = errors.New("fixtest: transport closed")

// Step is one scripted Read result.
type Step struct {
	Data []byte
	Err  error
}

// Transport is an in-memory io.ReadWriter. Reads replay queued steps; once the
// queue is empty every Read times out. Writes are recorded.
type Transport struct {
	mu       sync.Mutex
	steps    []Step
	writes   [][]byte
	reads    int
	writeErr error
	closed   bool

	// OnWrite, if set, is called after each successful write with the bytes written.
	// It may queue replies with Push.
	OnWrite func(t *Transport, raw []byte)
}

// NewTransport returns a transport replaying steps.
func NewTransport(steps ...Step) *Transport {
	return &Transport{steps: steps}
}

// Push queues data to be returned by a later Read.
func (t *Transport) Push(data ...[]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range data {
		t.steps = append(t.steps, Step{Data: d})
	}
}

// PushErr queues a Read error.
func (t *Transport) PushErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, Step{Err: err})
}

// FailWrites makes every subsequent Write return err.
func (t *Transport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// Read replays the next step.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads++
	if t.closed {
		return 0, ErrClosed
	}
	if len(t.steps) == 0 {
		return 0, TimeoutError{}
	}
	step := t.steps[0]
	n := copy(p, step.Data)
	if n < len(step.Data) {
		// Leave the remainder for the next Read.
		t.steps[0].Data = step.Data[n:]
		return n, nil
	}
	t.steps = t.steps[1:]
	return n, step.Err
}

// Write records p unless writes were made to fail.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}
	if t.writeErr != nil {
		err := t.writeErr
		t.mu.Unlock()
		return 0, err
	}
	raw := append([]byte(nil), p...)
	t.writes = append(t.writes, raw)
	hook := t.OnWrite
	t.mu.Unlock()

	if hook != nil {
		hook(t, raw)
	}
	return len(p), nil
}

// Close makes later reads and writes fail with ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Reads returns how many times Read was called.
func (t *Transport) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

// Writes returns copies of everything written so far.
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Sent decodes every write. It panics on bytes the codec rejects, which in a
// test means the code under test produced a broken message.
func (t *Transport) Sent() []*fix.Inbound {
	var out []*fix.Inbound
	for _, raw := range t.Writes() {
		m, err := fix.Decode(string(raw))
		if err != nil {
			panic(err)
		}
		out = append(out, m)
	}
	return out
}
