// Package rfq publishes indicative quote requests and listens for whatever
// the counterparty sends back over a fixed window.
package rfq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned when a Request cannot be sent.
var ErrInvalidRequest = errors.New("invalid rfq request")

// Session is the part of an established connection the controller drives.
type Session interface {
	Send(ctx context.Context, req fix.Request) (uint32, error)
	Poll() ([]*fix.Inbound, error)
	Wait(ctx context.Context, d time.Duration) error
}

// Request is one quote request, published once per symbol. Each copy carries
// its own client order id, ID followed by the symbol's 1-based position.
type Request struct {
	ID       string
	Symbols  []string
	Side     fix.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Type     fix.OrdType
}

// Validate reports whether r can be sent.
func (r Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	if len(r.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidRequest)
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}
	return nil
}

// ClOrdID returns the client order id sent for the i-th symbol.
func (r Request) ClOrdID(i int) string {
	return fmt.Sprintf("%s-%d", r.ID, i+1)
}

// Policy bounds the listening window.
type Policy struct {
	Epochs   int
	Interval time.Duration
}

// Result reports what one Run did.
type Result struct {
	Sent     int
	Epochs   int
	Received int
}

// Controller sends quote requests and listens without correlating replies.
type Controller struct {
	sess   Session
	logger *zap.Logger
}

// NewController creates a controller; a nil logger discards output.
func NewController(sess Session, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{sess: sess, logger: logger}
}

// Run publishes req (when it names symbols) and then reads for exactly
// policy.Epochs epochs, waiting policy.Interval after each one. Replies are
// logged, never matched. Only connection failures and context cancellation end
// the window early.
func (c *Controller) Run(ctx context.Context, req *Request, policy Policy) (Result, error) {
	var res Result

	if req != nil {
		if err := req.Validate(); err != nil {
			return res, err
		}
		for i, symbol := range req.Symbols {
			clOrdID := req.ClOrdID(i)
			seq, err := c.sess.Send(ctx, fix.QuoteRequest{
				ClOrdID:  clOrdID,
				Symbol:   symbol,
				Side:     req.Side,
				Type:     req.Type,
				Quantity: req.Quantity,
				Price:    req.Price,
			})
			if err != nil {
				return res, fmt.Errorf("send quote request for %s: %w", symbol, err)
			}
			res.Sent++
			c.logger.Info("quote request sent",
				zap.String("rfq_id", req.ID),
				zap.String("cl_ord_id", clOrdID),
				zap.String("symbol", symbol),
				zap.Uint32("seq_num", seq),
			)
		}
	}

	for epoch := 1; epoch <= policy.Epochs; epoch++ {
		res.Epochs = epoch
		msgs, readErr := c.sess.Poll()
		for _, m := range msgs {
			res.Received++
			c.logger.Info("message received",
				zap.Int("epoch", epoch),
				zap.String("msg_type", m.MsgType()),
				zap.String("raw", fix.Readable(m.Raw())),
			)
		}
		if readErr != nil && !session.IsRetryable(readErr) {
			return res, readErr
		}
		if readErr != nil {
			c.logger.Debug("nothing received", zap.Int("epoch", epoch))
		}
		if err := c.sess.Wait(ctx, policy.Interval); err != nil {
			return res, err
		}
	}

	c.logger.Info("listen window closed",
		zap.Int("epochs", res.Epochs),
		zap.Int("received", res.Received),
	)
	return res, nil
}
