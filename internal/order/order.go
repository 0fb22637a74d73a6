package order

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/shopspring/decimal"
)

// State is where an order sits in its lifecycle.
type State int

const (
	StateCreated State = iota
	StateSent
	StateAwaitingConfirmation
	StateConfirmedNew
	StateCancelRequested
	StateCancelled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSent:
		return "sent"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateConfirmedNew:
		return "confirmed_new"
	case StateCancelRequested:
		return "cancel_requested"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateTimedOut
}

// ErrInvalidOrder is returned by Validate.
var ErrInvalidOrder = errors.New("invalid order")

// Order is one locally initiated order. Only the Controller mutates State and
// ExchangeOrderID.
type Order struct {
	ClientOrderID   string
	ExchangeOrderID string
	Symbol          string
	Side            fix.Side
	Type            fix.OrdType
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	State           State
}

// Validate checks the fields needed to build a new order message.
func (o *Order) Validate() error {
	switch {
	case o.ClientOrderID == "":
		return fmt.Errorf("%w: missing client order id", ErrInvalidOrder)
	case o.Symbol == "":
		return fmt.Errorf("%w: missing symbol", ErrInvalidOrder)
	case o.Side == "":
		return fmt.Errorf("%w: missing side", ErrInvalidOrder)
	case o.Type == "":
		return fmt.Errorf("%w: missing order type", ErrInvalidOrder)
	case !o.Quantity.IsPositive():
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, o.Quantity)
	case o.Type.Priced() && !o.Price.IsPositive():
		return fmt.Errorf("%w: %s order needs a positive price, got %s", ErrInvalidOrder, o.Type, o.Price)
	}
	return nil
}

// IDGenerator issues client order ids from the clock's unix seconds. Ids are
// strictly increasing within a process even when several are drawn in the same second.
type IDGenerator struct {
	mu    sync.Mutex
	clock session.Clock
	last  int64
}

// NewIDGenerator seeds ids from clock's unix seconds.
func NewIDGenerator(clock session.Clock) *IDGenerator {
	if clock == nil {
		clock = session.RealClock{}
	}
	return &IDGenerator{clock: clock}
}

// Next returns an id greater than every id returned before.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ts := g.clock.Now().Unix()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return strconv.FormatInt(ts, 10)
}
