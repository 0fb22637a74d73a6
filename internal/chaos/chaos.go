package chaos

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	OpRead  = "read"
	OpWrite = "write"
)

// Chaos decides, deterministically from its seed, which transport operations
// to drop or delay.
type Chaos struct {
	cfg    *Config
	logger *zap.Logger
	rng    *rand.Rand
	mu     sync.Mutex
	start  time.Time
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// New creates a new Chaos instance
func New(cfg *Config, logger *zap.Logger) *Chaos {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chaos{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		now:    time.Now,
		after:  time.After,
	}
	c.start = c.now()

	// A profile overrides the individual settings it names.
	if cfg.Profile != "" {
		dropPct, delayMin, delayMax, err := ParseProfile(cfg.Profile)
		if err != nil {
			logger.Warn("failed to parse chaos profile", zap.Error(err))
		} else {
			if dropPct > 0 {
				cfg.DropPct = dropPct
			}
			if delayMin > 0 || delayMax > 0 {
				cfg.DelayMsMin = delayMin
				cfg.DelayMsMax = delayMax
			}
		}
	}

	return c
}

// EnabledFor reports whether injection applies to op right now.
func (c *Chaos) EnabledFor(op string) bool {
	if c == nil || !c.cfg.Enabled {
		return false
	}

	if c.cfg.WindowMs > 0 {
		elapsed := c.now().Sub(c.start).Milliseconds()
		if elapsed > int64(c.cfg.WindowMs) {
			return false
		}
	}

	if c.cfg.TargetOp != "" && c.cfg.TargetOp != op {
		return false
	}

	return true
}

// MaybeDelay waits a random delay within the configured bounds.
func (c *Chaos) MaybeDelay(ctx context.Context, op string) error {
	if !c.EnabledFor(op) {
		return nil
	}
	if c.cfg.DelayMsMin == 0 && c.cfg.DelayMsMax == 0 {
		return nil
	}

	c.mu.Lock()
	delayMs := c.cfg.DelayMsMin
	if c.cfg.DelayMsMax > c.cfg.DelayMsMin {
		delayMs += c.rng.Intn(c.cfg.DelayMsMax - c.cfg.DelayMsMin + 1)
	}
	c.mu.Unlock()

	if delayMs <= 0 {
		return nil
	}
	c.logger.Info("chaos delay injected",
		zap.String("op", op),
		zap.Int("delay_ms", delayMs),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.after(time.Duration(delayMs) * time.Millisecond):
		return nil
	}
}

// MaybeDrop reports whether op should be dropped.
func (c *Chaos) MaybeDrop(op string) bool {
	if !c.EnabledFor(op) || c.cfg.DropPct == 0 {
		return false
	}

	c.mu.Lock()
	drop := c.rng.Intn(100) < c.cfg.DropPct
	c.mu.Unlock()

	if drop {
		c.logger.Info("chaos drop injected",
			zap.String("op", op),
			zap.Bool("dropped", true),
		)
	}
	return drop
}
