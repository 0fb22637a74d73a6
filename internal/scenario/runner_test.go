package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/config"
	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/fixtest"
	"github.com/ismaiel54/fix-order-client/internal/order"
	"github.com/ismaiel54/fix-order-client/internal/rfq"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTrading(t *testing.T) Trading {
	t.Helper()
	tr, err := ParseTrading(config.Trading{
		Symbol:    "SOL-USD",
		Price:     "388",
		Quantity:  "2",
		Side:      "sell",
		OrderType: "limit",
		RFQTopics: []string{"ETH-USD", "SOL-USD"},
	})
	require.NoError(t, err)
	return tr
}

func newRunner(t *testing.T, settings Settings, tr *fixtest.Transport) (*Runner, *fixtest.Clock) {
	t.Helper()
	clock := fixtest.NewClock(time.Unix(1700000000, 0))
	conn := session.NewConn(tr,
		session.Config{SenderCompID: "apikey", TargetCompID: "PT-OE"},
		session.NewSequenceCounter(1),
		session.WithClock(clock),
	)
	orders := order.NewController(conn, order.DefaultConfig(), order.WithClock(clock))
	quotes := rfq.NewController(conn, nil)
	return NewRunner(settings, defaultTrading(t), orders, quotes, nil), clock
}

func TestParseTrading(t *testing.T) {
	tr := defaultTrading(t)
	assert.Equal(t, fix.SideSell, tr.Side)
	assert.Equal(t, fix.OrdTypeLimit, tr.Type)
	assert.Equal(t, "388", tr.Price.String())

	cases := map[string]config.Trading{
		"zero price":   {Symbol: "SOL-USD", Price: "0", Quantity: "2", Side: "sell", OrderType: "limit"},
		"bad quantity": {Symbol: "SOL-USD", Price: "388", Quantity: "two", Side: "sell", OrderType: "limit"},
		"short side":   {Symbol: "SOL-USD", Price: "388", Quantity: "2", Side: "sell_short", OrderType: "limit"},
		"stop type":    {Symbol: "SOL-USD", Price: "388", Quantity: "2", Side: "buy", OrderType: "stop"},
		"no symbol":    {Price: "388", Quantity: "2", Side: "buy", OrderType: "limit"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTrading(in)
			assert.ErrorIs(t, err, ErrInvalidTrading)
		})
	}
}

func TestCheck_UnknownScenario(t *testing.T) {
	assert.NoError(t, Check("rfq_quote"))
	assert.ErrorIs(t, Check("SPREAD"), ErrUnknownScenario)

	r, _ := newRunner(t, Settings{Name: "SPREAD"}, fixtest.NewTransport())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestRun_OrderPlacesAndCancels(t *testing.T) {
	tr := fixtest.NewTransport(
		fixtest.Step{Data: fixtest.ExecReport("1700000000", fix.OrdStatusNew, "55667")},
		fixtest.Step{Data: fixtest.CancelReport("1700000000", fix.OrdStatusCanceled)},
	)
	r, _ := newRunner(t, Settings{Name: config.ScenarioOrder, CancelOrder: true}, tr)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Orders, 1)
	assert.Equal(t, order.StateCancelled, rep.Orders[0].Order.State)
	assert.Equal(t, "55667", rep.Orders[0].Order.ExchangeOrderID)
	assert.Len(t, tr.Writes(), 2)
}

func TestRun_OrdersSequential(t *testing.T) {
	tr := fixtest.NewTransport(
		fixtest.Step{Data: fixtest.ExecReport("1700000000", fix.OrdStatusNew, "1")},
		fixtest.Step{Data: fixtest.ExecReport("1700000001", fix.OrdStatusNew, "2")},
	)
	r, _ := newRunner(t, Settings{Name: config.ScenarioOrders, OrderCount: 2}, tr)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Orders, 2)
	for _, out := range rep.Orders {
		assert.Equal(t, order.StateConfirmedNew, out.Order.State)
	}

	sent := tr.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "2", sent[0].SeqNum())
	assert.Equal(t, "3", sent[1].SeqNum())
}

func TestRun_RFQEpochBudgets(t *testing.T) {
	tr := fixtest.NewTransport()
	r, clock := newRunner(t, Settings{Name: config.ScenarioRFQQuote, PublishEpochs: 3, ListenEpochs: 7}, tr)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.RFQ.Sent)
	assert.Equal(t, 3, rep.RFQ.Epochs)
	assert.Equal(t, 3*time.Second, clock.Elapsed())

	tr = fixtest.NewTransport()
	r, _ = newRunner(t, Settings{Name: config.ScenarioRFQListen, PublishEpochs: 3, ListenEpochs: 7}, tr)
	rep, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, rep.RFQ.Epochs)
	assert.Equal(t, 7, tr.Reads())
}
