package fix

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/quickfixgo/quickfix"
)

// ErrDecode is returned when the codec rejects a message.
var ErrDecode = errors.New("fix decode failed")

// Inbound is a decoded message. It is read-only.
type Inbound struct {
	raw string
	msg *quickfix.Message
}

// Decode parses a single message as produced by Splitter or Reassembler.
func Decode(text string) (*Inbound, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", ErrDecode)
	}
	wire := text
	if !strings.HasSuffix(wire, SOH) {
		wire += SOH
	}
	msg := quickfix.NewMessage()
	if err := quickfix.ParseMessage(msg, bytes.NewBufferString(wire)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &Inbound{raw: text, msg: msg}, nil
}

// Get looks tag up in the header, body and trailer, in that order.
func (m *Inbound) Get(tag quickfix.Tag) (string, bool) {
	if v, err := m.msg.Header.GetString(tag); err == nil {
		return v, true
	}
	if v, err := m.msg.Body.GetString(tag); err == nil {
		return v, true
	}
	if v, err := m.msg.Trailer.GetString(tag); err == nil {
		return v, true
	}
	return "", false
}

func (m *Inbound) value(tag quickfix.Tag) string {
	v, _ := m.Get(tag)
	return v
}

// Field accessors return "" when the tag is absent.
func (m *Inbound) MsgType() string     { return m.value(TagMsgType) }
func (m *Inbound) ClOrdID() string     { return m.value(TagClOrdID) }
func (m *Inbound) OrdStatus() string   { return m.value(TagOrdStatus) }
func (m *Inbound) OrigClOrdID() string { return m.value(TagOrigClOrdID) }
func (m *Inbound) OrderID() string     { return m.value(TagOrderID) }
func (m *Inbound) Text() string        { return m.value(TagText) }

// SeqNum returns tag 34 as sent by the counterparty, or "" if absent.
func (m *Inbound) SeqNum() string { return m.value(TagMsgSeqNum) }

// Raw returns the text the message was decoded from.
func (m *Inbound) Raw() string { return m.raw }

// Readable replaces the field separator with '|' for log output.
func Readable(s string) string {
	return strings.ReplaceAll(s, SOH, "|")
}
