// Package scenario runs one named workflow over an established session.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/config"
	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/order"
	"github.com/ismaiel54/fix-order-client/internal/rfq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrUnknownScenario is returned for names other than the four supported ones.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrInvalidTrading is returned when the trading parameters do not parse.
	ErrInvalidTrading = errors.New("invalid trading parameters")
)

const defaultListenInterval = time.Second

// Trading holds the parsed order parameters.
type Trading struct {
	Symbol     string
	Side       fix.Side
	Type       fix.OrdType
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	RFQSymbols []string
}

// ParseTrading validates the raw trading settings.
func ParseTrading(t config.Trading) (Trading, error) {
	var out Trading
	var err error

	if out.Symbol = strings.TrimSpace(t.Symbol); out.Symbol == "" {
		return out, fmt.Errorf("%w: empty symbol", ErrInvalidTrading)
	}
	if out.Side, err = fix.ParseSide(t.Side); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidTrading, err)
	}
	if out.Side != fix.SideBuy && out.Side != fix.SideSell {
		return out, fmt.Errorf("%w: side must be buy or sell", ErrInvalidTrading)
	}
	if out.Type, err = fix.ParseOrdType(t.OrderType); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidTrading, err)
	}
	if out.Type != fix.OrdTypeLimit && out.Type != fix.OrdTypeMarket {
		return out, fmt.Errorf("%w: order type must be limit or market", ErrInvalidTrading)
	}
	if out.Quantity, err = decimal.NewFromString(t.Quantity); err != nil || !out.Quantity.IsPositive() {
		return out, fmt.Errorf("%w: quantity %q must be a positive number", ErrInvalidTrading, t.Quantity)
	}
	if out.Price, err = decimal.NewFromString(t.Price); err != nil || !out.Price.IsPositive() {
		return out, fmt.Errorf("%w: price %q must be a positive number", ErrInvalidTrading, t.Price)
	}
	out.RFQSymbols = t.RFQTopics
	if len(out.RFQSymbols) == 0 {
		out.RFQSymbols = []string{out.Symbol}
	}
	return out, nil
}

// Settings selects the workflow and its bounds.
type Settings struct {
	Name           string
	CancelOrder    bool
	OrderCount     int
	PublishEpochs  int
	ListenEpochs   int
	ListenInterval time.Duration
}

// Report is what a scenario did.
type Report struct {
	Scenario string
	Orders   []order.Outcome
	RFQ      rfq.Result
}

// Runner dispatches to the order or RFQ controller.
type Runner struct {
	settings Settings
	trading  Trading
	orders   *order.Controller
	quotes   *rfq.Controller
	logger   *zap.Logger
}

// NewRunner builds a runner; zero bounds fall back to defaults.
func NewRunner(settings Settings, trading Trading, orders *order.Controller, quotes *rfq.Controller, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.ListenInterval <= 0 {
		settings.ListenInterval = defaultListenInterval
	}
	if settings.OrderCount <= 0 {
		settings.OrderCount = 1
	}
	settings.Name = strings.ToUpper(strings.TrimSpace(settings.Name))
	return &Runner{settings: settings, trading: trading, orders: orders, quotes: quotes, logger: logger}
}

// Check reports an unknown scenario before any connection is made.
func Check(name string) error {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case config.ScenarioOrder, config.ScenarioOrders, config.ScenarioRFQQuote, config.ScenarioRFQListen:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}

// Run executes the configured scenario to completion.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	rep := Report{Scenario: r.settings.Name}
	if err := Check(r.settings.Name); err != nil {
		return rep, err
	}
	r.logger.Info("executing scenario", zap.String("scenario", r.settings.Name))

	var err error
	switch r.settings.Name {
	case config.ScenarioOrder:
		rep.Orders, err = r.orders.RunAll(ctx, []*order.Order{r.newOrder()}, r.settings.CancelOrder)
	case config.ScenarioOrders:
		batch := make([]*order.Order, 0, r.settings.OrderCount)
		for i := 0; i < r.settings.OrderCount; i++ {
			batch = append(batch, r.newOrder())
		}
		rep.Orders, err = r.orders.RunAll(ctx, batch, r.settings.CancelOrder)
	case config.ScenarioRFQQuote:
		rep.RFQ, err = r.quotes.Run(ctx, r.newQuote(), rfq.Policy{Epochs: r.settings.PublishEpochs, Interval: r.settings.ListenInterval})
	case config.ScenarioRFQListen:
		rep.RFQ, err = r.quotes.Run(ctx, r.newQuote(), rfq.Policy{Epochs: r.settings.ListenEpochs, Interval: r.settings.ListenInterval})
	}
	if err != nil {
		return rep, fmt.Errorf("scenario %s: %w", r.settings.Name, err)
	}

	for _, out := range rep.Orders {
		r.logger.Info("order finished",
			zap.String("cl_ord_id", out.Order.ClientOrderID),
			zap.String("order_id", out.Order.ExchangeOrderID),
			zap.String("state", out.Order.State.String()),
			zap.Int("cancel_rejects", out.CancelRejects),
		)
	}
	return rep, nil
}

func (r *Runner) newOrder() *order.Order {
	return &order.Order{
		ClientOrderID: r.orders.IDs().Next(),
		Symbol:        r.trading.Symbol,
		Side:          r.trading.Side,
		Type:          r.trading.Type,
		Quantity:      r.trading.Quantity,
		Price:         r.trading.Price,
	}
}

func (r *Runner) newQuote() *rfq.Request {
	return &rfq.Request{
		ID:       r.orders.IDs().Next(),
		Symbols:  r.trading.RFQSymbols,
		Side:     r.trading.Side,
		Type:     r.trading.Type,
		Quantity: r.trading.Quantity,
		Price:    r.trading.Price,
	}
}
