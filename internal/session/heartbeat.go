package session

import (
	"context"
	"errors"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"go.uber.org/zap"
)

// Heartbeater periodically writes a heartbeat on a Conn. It shares the Conn's
// counter and write lock with whatever scenario is running.
type Heartbeater struct {
	conn     *Conn
	interval time.Duration
}

// NewHeartbeater sends a heartbeat on conn every interval.
func NewHeartbeater(conn *Conn, interval time.Duration) *Heartbeater {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeater{conn: conn, interval: interval}
}

// Run sends a heartbeat every interval until ctx is done or a write fails.
func (h *Heartbeater) Run(ctx context.Context) error {
	logger := h.conn.Logger()
	logger.Info("heartbeater started", zap.Duration("interval", h.interval))

	for {
		if err := h.conn.Wait(ctx, h.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("heartbeater stopped")
				return nil
			}
			return err
		}
		seq, err := h.conn.Send(ctx, fix.HeartbeatRequest{})
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("heartbeater stopped")
				return nil
			}
			logger.Error("heartbeat failed", zap.Error(err))
			return err
		}
		logger.Debug("heartbeat sent", zap.Uint32("seq_num", seq))
	}
}
