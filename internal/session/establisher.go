package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"go.uber.org/zap"
)

// State is the logon progress of an Establisher.
type State int

const (
	StateNotStarted State = iota
	StateLogonSent
	StateLogonConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateLogonSent:
		return "logon_sent"
	case StateLogonConfirmed:
		return "logon_confirmed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Credentials produces the signed payload carried in tag 554.
type Credentials interface {
	Token(apiKey string) (string, error)
}

// EstablisherConfig controls the logon handshake.
type EstablisherConfig struct {
	Session Config

	// HeartBtInt is sent in tag 108, in seconds.
	HeartBtInt int

	// LogonEpochs bounds the number of reads spent waiting for the acknowledgment.
	LogonEpochs int

	// Backoff is slept after a read times out.
	Backoff time.Duration
}

// DefaultEstablisherConfig returns the handshake defaults.
func DefaultEstablisherConfig() EstablisherConfig {
	return EstablisherConfig{
		HeartBtInt:  30,
		LogonEpochs: 30,
		Backoff:     time.Second,
	}
}

// Establisher performs the logon handshake once per connection.
type Establisher struct {
	cfg   EstablisherConfig
	creds Credentials
	opts  []Option

	mu    sync.Mutex
	state State
}

// NewEstablisher creates an establisher; opts apply to the Conn it returns.
func NewEstablisher(cfg EstablisherConfig, creds Credentials, opts ...Option) *Establisher {
	if cfg.LogonEpochs <= 0 {
		cfg.LogonEpochs = DefaultEstablisherConfig().LogonEpochs
	}
	if cfg.HeartBtInt <= 0 {
		cfg.HeartBtInt = DefaultEstablisherConfig().HeartBtInt
	}
	return &Establisher{cfg: cfg, creds: creds, opts: opts}
}

// State returns the current handshake state.
func (e *Establisher) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Establisher) setState(logger *zap.Logger, s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	logger.Info("session state changed",
		zap.String("from", prev.String()),
		zap.String("to", s.String()),
	)
}

// Logon sends the logon message with sequence number 1 and waits for the
// acknowledgment. On success the returned Conn carries the live counter.
func (e *Establisher) Logon(ctx context.Context, rw io.ReadWriter) (*Conn, error) {
	conn := NewConn(rw, e.cfg.Session, NewSequenceCounter(0), e.opts...)
	logger := conn.Logger()

	token, err := e.creds.Token(e.cfg.Session.SenderCompID)
	if err != nil {
		e.setState(logger, StateFailed)
		return nil, fmt.Errorf("sign logon credential: %w", err)
	}

	seq, err := conn.Send(ctx, fix.LogonRequest{
		EncryptMethod: 0,
		HeartBtInt:    e.cfg.HeartBtInt,
		ResetSeqNum:   true,
		Credential:    token,
	})
	if err != nil {
		e.setState(logger, StateFailed)
		return nil, fmt.Errorf("send logon: %w", err)
	}
	e.setState(logger, StateLogonSent)
	logger.Info("logon sent", zap.Uint32("seq_num", seq))

	for epoch := 1; epoch <= e.cfg.LogonEpochs; epoch++ {
		msgs, readErr := conn.Poll()
		for _, m := range msgs {
			switch m.MsgType() {
			case fix.MsgTypeLogon:
				e.setState(logger, StateLogonConfirmed)
				logger.Info("logon confirmed", zap.Int("epoch", epoch))
				return conn, nil
			case fix.MsgTypeLogout:
				e.setState(logger, StateFailed)
				return nil, fmt.Errorf("%w: %s", ErrLogonRejected, m.Text())
			default:
				logger.Info("ignoring message while awaiting logon",
					zap.String("msg_type", m.MsgType()),
					zap.String("raw", fix.Readable(m.Raw())),
				)
			}
		}

		if readErr == nil {
			continue
		}
		if !IsRetryable(readErr) {
			e.setState(logger, StateFailed)
			return nil, fmt.Errorf("await logon: %w", readErr)
		}
		logger.Debug("no logon reply yet", zap.Int("epoch", epoch), zap.Error(readErr))
		if err := conn.Wait(ctx, e.cfg.Backoff); err != nil {
			e.setState(logger, StateFailed)
			return nil, fmt.Errorf("await logon: %w", err)
		}
	}

	e.setState(logger, StateFailed)
	return nil, fmt.Errorf("%w after %d attempts", ErrLogonTimeout, e.cfg.LogonEpochs)
}
