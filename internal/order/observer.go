package order

import (
	"context"
	"time"
)

// Transition records one state change of an order.
type Transition struct {
	ClientOrderID   string
	ExchangeOrderID string
	Symbol          string
	From            State
	To              State
	At              time.Time
	Reason          string
}

// Observer is told about every transition, after it has been applied.
type Observer interface {
	OrderTransitioned(ctx context.Context, t Transition)
}

// Observers fans a transition out to several observers in order.
type Observers []Observer

// OrderTransitioned notifies each observer in order.
func (obs Observers) OrderTransitioned(ctx context.Context, t Transition) {
	for _, o := range obs {
		if o != nil {
			o.OrderTransitioned(ctx, t)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OrderTransitioned(context.Context, Transition) {}
