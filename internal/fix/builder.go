package fix

import (
	"strconv"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

// TimestampFormat is used for SendingTime (52) and TransactTime (60).
const TimestampFormat = "20060102-15:04:05.000000000"

// Field is a single tag/value assignment.
type Field struct {
	Tag   quickfix.Tag
	Value string
}

// Builder collects an ordered list of field assignments for one outbound message.
// BodyLength and CheckSum are left to the codec.
type Builder struct {
	msgType string
	fields  []Field
}

// NewBuilder starts a message of the given type.
func NewBuilder(msgType string) *Builder {
	return &Builder{msgType: msgType}
}

// MsgType returns the tag 35 value.
func (b *Builder) MsgType() string {
	return b.msgType
}

// Set assigns a string value. A repeated tag overwrites the earlier assignment.
func (b *Builder) Set(tag quickfix.Tag, value string) *Builder {
	for i := range b.fields {
		if b.fields[i].Tag == tag {
			b.fields[i].Value = value
			return b
		}
	}
	b.fields = append(b.fields, Field{Tag: tag, Value: value})
	return b
}

// SetInt sets a decimal integer field.
func (b *Builder) SetInt(tag quickfix.Tag, value int) *Builder {
	return b.Set(tag, strconv.Itoa(value))
}

// SetUint32 sets an unsigned integer field.
func (b *Builder) SetUint32(tag quickfix.Tag, value uint32) *Builder {
	return b.Set(tag, strconv.FormatUint(uint64(value), 10))
}

// SetDecimal sets a price or quantity field.
func (b *Builder) SetDecimal(tag quickfix.Tag, value decimal.Decimal) *Builder {
	return b.Set(tag, value.String())
}

// SetTime sets a UTC timestamp in TimestampFormat.
func (b *Builder) SetTime(tag quickfix.Tag, value time.Time) *Builder {
	return b.Set(tag, value.UTC().Format(TimestampFormat))
}

// SetBool sets Y or N.
func (b *Builder) SetBool(tag quickfix.Tag, value bool) *Builder {
	if value {
		return b.Set(tag, "Y")
	}
	return b.Set(tag, "N")
}

// Get returns the value assigned to tag, if any.
func (b *Builder) Get(tag quickfix.Tag) (string, bool) {
	if tag == TagMsgType {
		return b.msgType, true
	}
	for _, f := range b.fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns the assignments in the order they were made.
func (b *Builder) Fields() []Field {
	out := make([]Field, len(b.fields))
	copy(out, b.fields)
	return out
}

// Message hands the assignments to the codec.
func (b *Builder) Message(beginString string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(TagBeginString, beginString)
	msg.Header.SetString(TagMsgType, b.msgType)
	for _, f := range b.fields {
		if isHeaderTag(f.Tag) {
			msg.Header.SetString(f.Tag, f.Value)
			continue
		}
		msg.Body.SetString(f.Tag, f.Value)
	}
	return msg
}

// Encode returns the wire bytes, with BodyLength and CheckSum computed by the codec.
func (b *Builder) Encode(beginString string) []byte {
	return []byte(b.Message(beginString).String())
}
