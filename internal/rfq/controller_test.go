package rfq

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fix"
	"github.com/ismaiel54/fix-order-client/internal/fixtest"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(tr *fixtest.Transport, clock *fixtest.Clock) *Controller {
	conn := session.NewConn(tr,
		session.Config{SenderCompID: "apikey", TargetCompID: "PT-OE"},
		session.NewSequenceCounter(1),
		session.WithClock(clock),
	)
	return NewController(conn, nil)
}

func testRequest() *Request {
	return &Request{
		ID:       "1700000000",
		Symbols:  []string{"ETH-USD", "SOL-USD", "DOGE-USD"},
		Side:     fix.SideBuy,
		Type:     fix.OrdTypeLimit,
		Quantity: decimal.NewFromInt(2),
		Price:    decimal.NewFromInt(388),
	}
}

func TestRun_PublishesOnePerSymbol(t *testing.T) {
	clock := fixtest.NewClock(time.Unix(0, 0))
	tr := fixtest.NewTransport()
	c := newTestController(tr, clock)

	res, err := c.Run(context.Background(), testRequest(), Policy{Epochs: 3, Interval: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 3, res.Epochs)

	sent := tr.Sent()
	require.Len(t, sent, 3)
	ids := make(map[string]int)
	for i, symbol := range []string{"ETH-USD", "SOL-USD", "DOGE-USD"} {
		ids[sent[i].ClOrdID()]++
		assert.Equal(t, fix.MsgTypeNewOrderSingle, sent[i].MsgType())
		v, _ := sent[i].Get(fix.TagSymbol)
		assert.Equal(t, symbol, v)
		v, _ = sent[i].Get(fix.TagMarketID)
		assert.Equal(t, fix.MarketIndicative, v)
	}
	assert.Equal(t, "2", sent[0].SeqNum())
	assert.Equal(t, "4", sent[2].SeqNum())

	assert.Len(t, ids, 3, "every quote request needs its own client order id")
	assert.Equal(t, "1700000000-1", sent[0].ClOrdID())
	assert.Equal(t, "1700000000-3", sent[2].ClOrdID())
}

func TestRun_ListensFullWindowEvenWithReplies(t *testing.T) {
	clock := fixtest.NewClock(time.Unix(0, 0))
	tr := fixtest.NewTransport(
		fixtest.Step{Data: fixtest.ExecReport("1700000000", fix.OrdStatusNew, "1")},
		fixtest.Step{Data: fixtest.Join(fixtest.Heartbeat(), fixtest.Heartbeat())},
	)
	c := newTestController(tr, clock)

	res, err := c.Run(context.Background(), nil, Policy{Epochs: 5, Interval: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 5, res.Epochs)
	assert.Equal(t, 3, res.Received)
	assert.Equal(t, 5, tr.Reads())
	assert.Equal(t, 5*time.Second, clock.Elapsed())
}

func TestRun_ConnectionErrorAbandons(t *testing.T) {
	tr := fixtest.NewTransport(fixtest.Step{Err: io.EOF})
	c := newTestController(tr, fixtest.NewClock(time.Unix(0, 0)))

	res, err := c.Run(context.Background(), nil, Policy{Epochs: 5, Interval: time.Second})
	require.ErrorIs(t, err, session.ErrConnection)
	assert.Equal(t, 1, res.Epochs)
}

func TestRun_InvalidRequest(t *testing.T) {
	tr := fixtest.NewTransport()
	c := newTestController(tr, fixtest.NewClock(time.Unix(0, 0)))
	req := testRequest()
	req.Symbols = nil

	_, err := c.Run(context.Background(), req, Policy{Epochs: 1})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, tr.Writes())
}
