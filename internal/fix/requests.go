package fix

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Header carries the session fields stamped onto every outbound message.
type Header struct {
	SenderCompID string
	TargetCompID string
	SeqNum       uint32
	SendingTime  time.Time
}

func (h Header) apply(b *Builder) *Builder {
	return b.SetUint32(TagMsgSeqNum, h.SeqNum).
		Set(TagSenderCompID, h.SenderCompID).
		Set(TagTargetCompID, h.TargetCompID).
		SetTime(TagSendingTime, h.SendingTime)
}

// Request is a descriptor for one outbound message category.
type Request interface {
	Build(h Header) *Builder
}

// LogonRequest opens a session (35=A).
type LogonRequest struct {
	EncryptMethod int
	HeartBtInt    int
	ResetSeqNum   bool
	Credential    string
}

// Build returns the 35=A message.
func (r LogonRequest) Build(h Header) *Builder {
	b := h.apply(NewBuilder(MsgTypeLogon))
	b.SetInt(TagEncryptMethod, r.EncryptMethod).
		SetInt(TagHeartBtInt, r.HeartBtInt).
		SetBool(TagResetSeqNumFlag, r.ResetSeqNum)
	if r.Credential != "" {
		b.Set(TagCredential, r.Credential)
	}
	return b
}

// NewOrderRequest places a firm order (35=D).
type NewOrderRequest struct {
	ClOrdID      string
	Symbol       string
	Side         Side
	Type         OrdType
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	TransactTime time.Time
}

// Build returns the 35=D message; 44 is set only for priced types.
func (r NewOrderRequest) Build(h Header) *Builder {
	b := h.apply(NewBuilder(MsgTypeNewOrderSingle))
	b.Set(TagClOrdID, r.ClOrdID).
		SetDecimal(TagOrderQty, r.Quantity).
		Set(TagOrdType, string(r.Type))
	if r.Type.Priced() {
		b.SetDecimal(TagPrice, r.Price)
	}
	b.Set(TagSide, string(r.Side)).
		Set(TagSymbol, r.Symbol).
		Set(TagTimeInForce, TimeInForceGoodTillCancel).
		SetTime(TagTransactTime, transactTime(r.TransactTime, h))
	return b
}

// CancelRequest asks the counterparty to cancel a confirmed order (35=F).
type CancelRequest struct {
	ClOrdID      string
	OrigClOrdID  string
	OrderID      string
	Side         Side
	Symbol       string
	Text         string
	TransactTime time.Time
}

// Build returns the 35=F message.
func (r CancelRequest) Build(h Header) *Builder {
	text := r.Text
	if text == "" {
		text = fmt.Sprintf("Cancel order %s", r.OrigClOrdID)
	}
	b := h.apply(NewBuilder(MsgTypeOrderCancelRequest))
	return b.Set(TagClOrdID, r.ClOrdID).
		Set(TagOrderID, r.OrderID).
		Set(TagOrigClOrdID, r.OrigClOrdID).
		Set(TagSide, string(r.Side)).
		Set(TagSymbol, r.Symbol).
		Set(TagText, text).
		SetTime(TagTransactTime, transactTime(r.TransactTime, h))
}

// QuoteRequest publishes an indicative quote for one symbol. It travels as 35=D
// and is told apart from a firm order by the market identifier (1301) and
// symbol suffix (65).
type QuoteRequest struct {
	ClOrdID      string
	Symbol       string
	Side         Side
	Type         OrdType
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	MarketID     string
	TransactTime time.Time
}

// Build returns an indicative 35=D quote request.
func (r QuoteRequest) Build(h Header) *Builder {
	market := r.MarketID
	if market == "" {
		market = MarketIndicative
	}
	b := NewOrderRequest{
		ClOrdID:      r.ClOrdID,
		Symbol:       r.Symbol,
		Side:         r.Side,
		Type:         r.Type,
		Quantity:     r.Quantity,
		Price:        r.Price,
		TransactTime: r.TransactTime,
	}.Build(h)
	return b.Set(TagSymbolSfx, market).Set(TagMarketID, market)
}

// HeartbeatRequest keeps an idle session alive (35=0).
type HeartbeatRequest struct{}

// Build returns the 35=0 message.
func (HeartbeatRequest) Build(h Header) *Builder {
	return h.apply(NewBuilder(MsgTypeHeartbeat))
}

func transactTime(t time.Time, h Header) time.Time {
	if t.IsZero() {
		return h.SendingTime
	}
	return t
}
