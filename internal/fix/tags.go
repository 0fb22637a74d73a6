package fix

import "github.com/quickfixgo/quickfix"

// SOH is the field separator on the wire.
const SOH = "\x01"

// DefaultBeginString is the protocol version carried in tag 8.
const DefaultBeginString = "FIX.4.4"

// Field numbers used by this client. Builders and accessors share this table.
const (
	TagBeginString     quickfix.Tag = 8
	TagBodyLength      quickfix.Tag = 9
	TagCheckSum        quickfix.Tag = 10
	TagClOrdID         quickfix.Tag = 11
	TagMsgSeqNum       quickfix.Tag = 34
	TagMsgType         quickfix.Tag = 35
	TagOrderID         quickfix.Tag = 37
	TagOrderQty        quickfix.Tag = 38
	TagOrdStatus       quickfix.Tag = 39
	TagOrdType         quickfix.Tag = 40
	TagOrigClOrdID     quickfix.Tag = 41
	TagPrice           quickfix.Tag = 44
	TagSenderCompID    quickfix.Tag = 49
	TagSendingTime     quickfix.Tag = 52
	TagSide            quickfix.Tag = 54
	TagSymbol          quickfix.Tag = 55
	TagTargetCompID    quickfix.Tag = 56
	TagText            quickfix.Tag = 58
	TagTimeInForce     quickfix.Tag = 59
	TagTransactTime    quickfix.Tag = 60
	TagSymbolSfx       quickfix.Tag = 65
	TagEncryptMethod   quickfix.Tag = 98
	TagHeartBtInt      quickfix.Tag = 108
	TagResetSeqNumFlag quickfix.Tag = 141
	TagCredential      quickfix.Tag = 554
	TagMarketID        quickfix.Tag = 1301
)

// isHeaderTag reports whether tag belongs in the standard header.
func isHeaderTag(tag quickfix.Tag) bool {
	switch tag {
	case TagBeginString, TagBodyLength, TagMsgType, TagMsgSeqNum,
		TagSenderCompID, TagSendingTime, TagTargetCompID:
		return true
	}
	return false
}

// Message types (tag 35).
const (
	MsgTypeHeartbeat          = "0"
	MsgTypeReject             = "3"
	MsgTypeLogout             = "5"
	MsgTypeExecutionReport    = "8"
	MsgTypeOrderCancelReject  = "9"
	MsgTypeLogon              = "A"
	MsgTypeNewOrderSingle     = "D"
	MsgTypeOrderCancelRequest = "F"
)

// MsgTypeName returns a readable name for log output.
func MsgTypeName(msgType string) string {
	switch msgType {
	case MsgTypeHeartbeat:
		return "heartbeat"
	case MsgTypeReject:
		return "reject"
	case MsgTypeLogout:
		return "logout"
	case MsgTypeExecutionReport:
		return "execution_report"
	case MsgTypeOrderCancelReject:
		return "order_cancel_reject"
	case MsgTypeLogon:
		return "logon"
	case MsgTypeNewOrderSingle:
		return "new_order_single"
	case MsgTypeOrderCancelRequest:
		return "order_cancel_request"
	}
	return "unknown"
}
