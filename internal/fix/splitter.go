package fix

import "strings"

// Splitter partitions one read's worth of bytes into messages.
type Splitter struct {
	marker string
}

// NewSplitter returns a splitter keyed on "8=<beginString><SOH>".
func NewSplitter(beginString string) *Splitter {
	if beginString == "" {
		beginString = DefaultBeginString
	}
	return &Splitter{marker: "8=" + beginString + SOH}
}

// Marker returns the message-start marker.
func (s *Splitter) Marker() string {
	return s.marker
}

// Split returns the messages contained in raw. Each marker starts a message that
// runs up to the next marker, with trailing separators trimmed. Text before the
// first marker, or a message cut short by the read, is returned as-is.
func (s *Splitter) Split(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	text := string(raw)

	var out []string
	emit := func(part string) {
		part = strings.TrimRight(part, SOH)
		if part != "" {
			out = append(out, part)
		}
	}

	start := strings.Index(text, s.marker)
	if start < 0 {
		emit(text)
		return out
	}
	if start > 0 {
		emit(text[:start])
	}
	for start >= 0 {
		next := strings.Index(text[start+len(s.marker):], s.marker)
		if next < 0 {
			emit(text[start:])
			break
		}
		end := start + len(s.marker) + next
		emit(text[start:end])
		start = end
	}
	return out
}
