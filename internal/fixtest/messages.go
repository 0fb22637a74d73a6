package fixtest

import (
	"github.com/ismaiel54/fix-order-client/internal/fix"
)

// Message encodes a counterparty message of the given type with the given body fields.
func Message(msgType string, fields ...fix.Field) []byte {
	b := fix.NewBuilder(msgType).
		Set(fix.TagSenderCompID, "PT-OE").
		Set(fix.TagTargetCompID, "test")
	for _, f := range fields {
		b.Set(f.Tag, f.Value)
	}
	return b.Encode(fix.DefaultBeginString)
}

// LogonAck is the counterparty's logon acknowledgment.
func LogonAck() []byte {
	return Message(fix.MsgTypeLogon, fix.Field{Tag: fix.TagHeartBtInt, Value: "30"})
}

// Logout carries a rejection reason in tag 58.
func Logout(text string) []byte {
	return Message(fix.MsgTypeLogout, fix.Field{Tag: fix.TagText, Value: text})
}

// Heartbeat is an inbound 35=0.
func Heartbeat() []byte {
	return Message(fix.MsgTypeHeartbeat)
}

// ExecReport is an execution report for a new order.
func ExecReport(clOrdID, ordStatus, orderID string) []byte {
	return Message(fix.MsgTypeExecutionReport,
		fix.Field{Tag: fix.TagClOrdID, Value: clOrdID},
		fix.Field{Tag: fix.TagOrderID, Value: orderID},
		fix.Field{Tag: fix.TagOrdStatus, Value: ordStatus},
	)
}

// CancelReport is an execution report answering a cancel request.
func CancelReport(origClOrdID, ordStatus string) []byte {
	return Message(fix.MsgTypeExecutionReport,
		fix.Field{Tag: fix.TagClOrdID, Value: origClOrdID + "-c"},
		fix.Field{Tag: fix.TagOrigClOrdID, Value: origClOrdID},
		fix.Field{Tag: fix.TagOrdStatus, Value: ordStatus},
	)
}

// CancelReject is an order cancel reject for origClOrdID.
func CancelReject(origClOrdID, text string) []byte {
	return Message(fix.MsgTypeOrderCancelReject,
		fix.Field{Tag: fix.TagOrigClOrdID, Value: origClOrdID},
		fix.Field{Tag: fix.TagOrdStatus, Value: fix.OrdStatusRejected},
		fix.Field{Tag: fix.TagText, Value: text},
	)
}

// CancelEcho is the counterparty echoing a cancel request back.
func CancelEcho(origClOrdID string) []byte {
	return Message(fix.MsgTypeOrderCancelRequest,
		fix.Field{Tag: fix.TagOrigClOrdID, Value: origClOrdID},
	)
}

// Join concatenates messages as they would arrive in one read.
func Join(msgs ...[]byte) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m...)
	}
	return out
}
