package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/fix-order-client/internal/fix"
	"go.uber.org/zap"
)

const defaultReadBufferSize = 4096

// Config identifies the session on the wire.
type Config struct {
	BeginString    string
	SenderCompID   string
	TargetCompID   string
	ReadBufferSize int
}

func (c Config) withDefaults() Config {
	if c.BeginString == "" {
		c.BeginString = fix.DefaultBeginString
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	return c
}

// MessageObserver is notified of traffic on a Conn.
type MessageObserver interface {
	MessageSent(msgType string)
	MessageReceived(msgType string)
	DecodeFailed()
}

type nopObserver struct{}

func (nopObserver) MessageSent(string)     {}
func (nopObserver) MessageReceived(string) {}
func (nopObserver) DecodeFailed()          {}

type options struct {
	clock    Clock
	logger   *zap.Logger
	observer MessageObserver
}

// Option configures a Conn or an Establisher.
type Option func(*options)

// WithClock sets the clock used by Wait and for timestamps.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the base logger; the session id is added to it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver is notified of every message sent or received.
func WithObserver(m MessageObserver) Option {
	return func(o *options) { o.observer = m }
}

func buildOptions(opts []Option) options {
	o := options{clock: RealClock{}, logger: zap.NewNop(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Conn is an established session: the byte stream plus the sequence counter
// that numbers everything written to it. Reads are driven by a single caller;
// writes may come from several goroutines.
type Conn struct {
	id       string
	rw       io.ReadWriter
	cfg      Config
	counter  *SequenceCounter
	clock    Clock
	logger   *zap.Logger
	observer MessageObserver

	reassembler *fix.Reassembler
	readBuf     []byte

	// Held across increment, build and write so numbers reach the wire in order.
	writeMu sync.Mutex
}

// NewConn wraps rw. The counter is shared with whoever else writes to rw.
func NewConn(rw io.ReadWriter, cfg Config, counter *SequenceCounter, opts ...Option) *Conn {
	cfg = cfg.withDefaults()
	o := buildOptions(opts)
	id := uuid.NewString()
	return &Conn{
		id:          id,
		rw:          rw,
		cfg:         cfg,
		counter:     counter,
		clock:       o.clock,
		logger:      o.logger.With(zap.String("session_id", id)),
		observer:    o.observer,
		reassembler: fix.NewReassembler(cfg.BeginString),
		readBuf:     make([]byte, cfg.ReadBufferSize),
	}
}

// ID returns the session id. The accessors below expose what the Conn was built with.
func (c *Conn) ID() string                { return c.id }
func (c *Conn) Config() Config            { return c.cfg }
func (c *Conn) Counter() *SequenceCounter { return c.counter }
func (c *Conn) Clock() Clock              { return c.clock }
func (c *Conn) Logger() *zap.Logger       { return c.logger }

// Send numbers req with the next sequence value, encodes it and writes it.
// The counter advances even when the write fails.
func (c *Conn) Send(ctx context.Context, req fix.Request) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	seq := c.counter.Increment()
	b := req.Build(fix.Header{
		SenderCompID: c.cfg.SenderCompID,
		TargetCompID: c.cfg.TargetCompID,
		SeqNum:       seq,
		SendingTime:  c.clock.Now(),
	})
	raw := b.Encode(c.cfg.BeginString)

	if _, err := c.rw.Write(raw); err != nil {
		c.logger.Error("write failed",
			zap.String("msg_type", b.MsgType()),
			zap.Uint32("seq_num", seq),
			zap.Error(err),
		)
		return seq, fmt.Errorf("%w: write %s: %w", ErrConnection, fix.MsgTypeName(b.MsgType()), err)
	}

	c.observer.MessageSent(b.MsgType())
	c.logger.Debug("message sent",
		zap.String("msg_type", b.MsgType()),
		zap.Uint32("seq_num", seq),
		zap.String("raw", fix.Readable(string(raw))),
	)
	return seq, nil
}

// Poll performs one read and returns the complete messages it yielded.
// Like io.Reader, messages may accompany an error and should be handled first.
// Timeouts come back wrapped in ErrRetryable; anything else in ErrConnection.
// Messages the codec rejects are logged and skipped.
func (c *Conn) Poll() ([]*fix.Inbound, error) {
	n, readErr := c.rw.Read(c.readBuf)

	var texts []string
	if n > 0 {
		texts = c.reassembler.Feed(c.readBuf[:n])
	}
	if readErr != nil && !IsRetryable(readErr) {
		// No more bytes will complete a partial message.
		texts = append(texts, c.reassembler.Flush()...)
	}

	var msgs []*fix.Inbound
	for _, text := range texts {
		m, err := fix.Decode(text)
		if err != nil {
			c.observer.DecodeFailed()
			c.logger.Warn("discarding undecodable message",
				zap.String("raw", fix.Readable(text)),
				zap.Error(err),
			)
			continue
		}
		c.observer.MessageReceived(m.MsgType())
		c.logger.Debug("message received",
			zap.String("msg_type", m.MsgType()),
			zap.String("raw", fix.Readable(text)),
		)
		msgs = append(msgs, m)
	}

	if readErr == nil {
		return msgs, nil
	}
	if IsRetryable(readErr) {
		return msgs, fmt.Errorf("%w: %w", ErrRetryable, readErr)
	}
	if errors.Is(readErr, io.EOF) {
		return msgs, fmt.Errorf("%w: connection closed by peer: %w", ErrConnection, readErr)
	}
	return msgs, fmt.Errorf("%w: read: %w", ErrConnection, readErr)
}

// Wait blocks for d on the session clock, or until ctx is done.
func (c *Conn) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}
