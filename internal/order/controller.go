package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"go.uber.org/zap"
)

// Session is the part of an established connection the controller drives.
type Session interface {
	Send(ctx context.Context, req fix.Request) (uint32, error)
	Poll() ([]*fix.Inbound, error)
	Wait(ctx context.Context, d time.Duration) error
}

// WaitPolicy bounds one correlation loop.
type WaitPolicy struct {
	// Epochs is the number of read attempts before giving up.
	Epochs int
	// Backoff is waited after a read times out.
	Backoff time.Duration
	// Interval is waited after an epoch that read data without reaching the target state.
	Interval time.Duration
}

// Config holds the confirmation and cancellation policies.
type Config struct {
	Confirm WaitPolicy
	Cancel  WaitPolicy
}

// DefaultConfig returns ten epochs with a 5s backoff for both phases.
func DefaultConfig() Config {
	return Config{
		Confirm: WaitPolicy{Epochs: 10, Backoff: 5 * time.Second},
		Cancel:  WaitPolicy{Epochs: 10, Backoff: 5 * time.Second, Interval: 5 * time.Second},
	}
}

// Outcome summarises one Run. A TimedOut order is an outcome, not an error.
type Outcome struct {
	Order         *Order
	ConfirmEpochs int
	CancelEpochs  int
	// CancelRejects counts cancel rejects seen while waiting for the cancellation.
	CancelRejects int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithObserver receives every state transition.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithClock sets the clock used for ids and timestamps.
func WithClock(clock session.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithIDGenerator overrides the client order id source.
func WithIDGenerator(g *IDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

// Controller walks orders through placement and cancellation on one session.
// It is not safe for concurrent use; multi-order workflows call it sequentially.
type Controller struct {
	sess     Session
	cfg      Config
	logger   *zap.Logger
	observer Observer
	clock    session.Clock
	ids      *IDGenerator
}

// NewController creates a controller driving sess.
func NewController(sess Session, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		sess:     sess,
		cfg:      cfg,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		clock:    session.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		c.ids = NewIDGenerator(c.clock)
	}
	return c
}

// IDs returns the generator used for client order ids.
func (c *Controller) IDs() *IDGenerator {
	return c.ids
}

// Run places o and, when cancel is set and the order was confirmed, cancels it.
// Errors are returned only for connection failures and cancelled contexts.
func (c *Controller) Run(ctx context.Context, o *Order, cancel bool) (Outcome, error) {
	out := Outcome{Order: o}

	epochs, err := c.Place(ctx, o)
	out.ConfirmEpochs = epochs
	if err != nil || o.State != StateConfirmedNew || !cancel {
		return out, err
	}

	epochs, rejects, err := c.Cancel(ctx, o)
	out.CancelEpochs = epochs
	out.CancelRejects = rejects
	return out, err
}

// RunAll runs each order in turn on the same session, stopping at the first error.
func (c *Controller) RunAll(ctx context.Context, orders []*Order, cancel bool) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(orders))
	for _, o := range orders {
		out, err := c.Run(ctx, o, cancel)
		outcomes = append(outcomes, out)
		if err != nil {
			return outcomes, fmt.Errorf("order %s: %w", o.ClientOrderID, err)
		}
	}
	return outcomes, nil
}

// Place sends the new order and waits for its confirmation. It returns the
// number of read attempts spent. On return o is ConfirmedNew or TimedOut, unless
// an error interrupted the wait.
func (c *Controller) Place(ctx context.Context, o *Order) (int, error) {
	if o.State != StateCreated {
		return 0, fmt.Errorf("%w: place from state %s", ErrInvalidOrder, o.State)
	}
	if err := o.Validate(); err != nil {
		return 0, err
	}
	logger := c.logger.With(zap.String("cl_ord_id", o.ClientOrderID), zap.String("symbol", o.Symbol))

	seq, err := c.sess.Send(ctx, fix.NewOrderRequest{
		ClOrdID:      o.ClientOrderID,
		Symbol:       o.Symbol,
		Side:         o.Side,
		Type:         o.Type,
		Quantity:     o.Quantity,
		Price:        o.Price,
		TransactTime: c.clock.Now(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		// The counterparty never sees the order; the wait below runs out.
		logger.Error("new order write failed", zap.Error(err))
		c.transition(ctx, o, StateSent, "write failed")
	} else {
		logger.Info("new order sent",
			zap.Uint32("seq_num", seq),
			zap.String("side", o.Side.String()),
			zap.String("ord_type", o.Type.String()),
			zap.String("qty", o.Quantity.String()),
			zap.String("price", o.Price.String()),
		)
		c.transition(ctx, o, StateSent, "")
	}

	c.transition(ctx, o, StateAwaitingConfirmation, "")
	policy := c.cfg.Confirm
	for epoch := 1; epoch <= policy.Epochs; epoch++ {
		msgs, readErr := c.sess.Poll()
		for _, m := range msgs {
			if m.ClOrdID() != o.ClientOrderID {
				logger.Info("ignoring message for another order",
					zap.String("msg_type", m.MsgType()),
					zap.String("msg_cl_ord_id", m.ClOrdID()),
				)
				continue
			}
			if m.OrdStatus() != fix.OrdStatusNew {
				logger.Info("order status update while awaiting confirmation",
					zap.String("msg_type", m.MsgType()),
					zap.String("ord_status", m.OrdStatus()),
					zap.String("text", m.Text()),
				)
				continue
			}
			o.ExchangeOrderID = m.OrderID()
			c.transition(ctx, o, StateConfirmedNew, "")
			logger.Info("order confirmed",
				zap.String("order_id", o.ExchangeOrderID),
				zap.Int("epoch", epoch),
			)
			return epoch, nil
		}

		if err := c.pause(ctx, policy, readErr, epoch == policy.Epochs); err != nil {
			return epoch, err
		}
	}

	c.transition(ctx, o, StateTimedOut, "no confirmation")
	logger.Warn("order confirmation timed out", zap.Int("epochs", policy.Epochs))
	return policy.Epochs, nil
}

// Cancel requests cancellation of a confirmed order and waits for the
// acknowledgment. Cancel rejects are logged and counted; only an execution
// report with status Cancelled ends the wait early.
func (c *Controller) Cancel(ctx context.Context, o *Order) (epochs, rejects int, err error) {
	if o.State != StateConfirmedNew {
		return 0, 0, fmt.Errorf("%w: cancel from state %s", ErrInvalidOrder, o.State)
	}
	logger := c.logger.With(zap.String("cl_ord_id", o.ClientOrderID), zap.String("order_id", o.ExchangeOrderID))

	cancelID := c.ids.Next()
	seq, sendErr := c.sess.Send(ctx, fix.CancelRequest{
		ClOrdID:      cancelID,
		OrigClOrdID:  o.ClientOrderID,
		OrderID:      o.ExchangeOrderID,
		Side:         o.Side,
		Symbol:       o.Symbol,
		TransactTime: c.clock.Now(),
	})
	if sendErr != nil {
		if ctx.Err() != nil {
			return 0, 0, ctx.Err()
		}
		logger.Error("cancel request write failed", zap.Error(sendErr))
		c.transition(ctx, o, StateCancelRequested, "write failed")
	} else {
		logger.Info("cancel request sent", zap.Uint32("seq_num", seq), zap.String("cancel_cl_ord_id", cancelID))
		c.transition(ctx, o, StateCancelRequested, "")
	}

	policy := c.cfg.Cancel
	for epoch := 1; epoch <= policy.Epochs; epoch++ {
		msgs, readErr := c.sess.Poll()
		for _, m := range msgs {
			switch m.MsgType() {
			case fix.MsgTypeOrderCancelRequest:
				logger.Info("cancel request echoed", zap.String("orig_cl_ord_id", m.OrigClOrdID()))
			case fix.MsgTypeExecutionReport:
				if m.OrigClOrdID() != o.ClientOrderID {
					logger.Info("ignoring execution report for another order",
						zap.String("orig_cl_ord_id", m.OrigClOrdID()),
						zap.String("ord_status", m.OrdStatus()),
					)
					continue
				}
				if m.OrdStatus() == fix.OrdStatusCanceled {
					c.transition(ctx, o, StateCancelled, "")
					logger.Info("order cancelled", zap.Int("epoch", epoch))
					return epoch, rejects, nil
				}
				logger.Info("execution report while awaiting cancellation",
					zap.String("ord_status", m.OrdStatus()),
				)
			case fix.MsgTypeOrderCancelReject:
				rejects++
				logger.Warn("cancel rejected, still waiting",
					zap.String("orig_cl_ord_id", m.OrigClOrdID()),
					zap.String("text", m.Text()),
					zap.Int("rejects", rejects),
				)
			default:
				logger.Info("ignoring message while awaiting cancellation",
					zap.String("msg_type", m.MsgType()),
					zap.String("raw", fix.Readable(m.Raw())),
				)
			}
		}

		if err := c.pause(ctx, policy, readErr, epoch == policy.Epochs); err != nil {
			return epoch, rejects, err
		}
	}

	c.transition(ctx, o, StateTimedOut, "no cancel acknowledgment")
	logger.Warn("cancel acknowledgment timed out", zap.Int("epochs", policy.Epochs), zap.Int("rejects", rejects))
	return policy.Epochs, rejects, nil
}

// pause ends an epoch that did not reach the target state. Read errors other
// than timeouts are returned. Otherwise it waits the backoff after a timeout or
// the interval after a read, except after the final epoch.
func (c *Controller) pause(ctx context.Context, policy WaitPolicy, readErr error, last bool) error {
	var d time.Duration
	switch {
	case readErr == nil:
		d = policy.Interval
	case session.IsRetryable(readErr):
		d = policy.Backoff
	case errors.Is(readErr, session.ErrConnection):
		return readErr
	default:
		return fmt.Errorf("%w: %w", session.ErrConnection, readErr)
	}
	if last {
		return ctx.Err()
	}
	return c.sess.Wait(ctx, d)
}

func (c *Controller) transition(ctx context.Context, o *Order, to State, reason string) {
	from := o.State
	o.State = to
	fields := []zap.Field{
		zap.String("cl_ord_id", o.ClientOrderID),
		zap.String("from", from.String()),
		zap.String("state", to.String()),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	c.logger.Info("order state changed", fields...)
	c.observer.OrderTransitioned(ctx, Transition{
		ClientOrderID:   o.ClientOrderID,
		ExchangeOrderID: o.ExchangeOrderID,
		Symbol:          o.Symbol,
		From:            from,
		To:              to,
		At:              c.clock.Now(),
		Reason:          reason,
	})
}
