package fix

import (
	"bytes"
	"strconv"
)

// trailerLen is the size of "10=NNN<SOH>".
const trailerLen = 7

// MaxBodyLength is the largest BodyLength accepted. Anything above it is
// treated as broken framing.
const MaxBodyLength = 1 << 20

// maxBuffered bounds the bytes held while waiting for a message to complete.
const maxBuffered = 2 * MaxBodyLength

// Reassembler buffers reads and releases only complete messages, framed by the
// BodyLength field. A message whose framing cannot be parsed is released up to
// the next message start instead.
type Reassembler struct {
	splitter *Splitter
	marker   []byte
	buf      []byte

	maxBody     int
	maxBuffered int
}

// NewReassembler frames messages starting with "8=<beginString><SOH>".
func NewReassembler(beginString string) *Reassembler {
	s := NewSplitter(beginString)
	return &Reassembler{
		splitter:    s,
		marker:      []byte(s.Marker()),
		maxBody:     MaxBodyLength,
		maxBuffered: maxBuffered,
	}
}

// Buffered returns the number of bytes held back waiting for more data.
func (r *Reassembler) Buffered() int {
	return len(r.buf)
}

// Feed appends data and returns every message that is now complete. When more
// than the buffer limit is held without completing a message, the held bytes
// are released as they are so the caller can reject them.
func (r *Reassembler) Feed(data []byte) []string {
	r.buf = append(r.buf, data...)

	var out []string
	for len(r.buf) > 0 {
		start := r.nextMarker(0)
		if start < 0 {
			// Nothing to frame yet. Hold the bytes until a message start shows up.
			break
		}
		if start > 0 {
			out = appendTrimmed(out, r.buf[:start])
			r.buf = r.buf[start:]
			continue
		}

		n, ok := r.frame()
		if ok {
			out = appendTrimmed(out, r.buf[:n])
			r.buf = r.buf[n:]
			continue
		}
		if n == 0 {
			// Incomplete but consistent so far.
			break
		}

		// Framing is broken; cut at the next message start if there is one.
		next := r.nextMarker(len(r.marker))
		if next < 0 {
			break
		}
		out = appendTrimmed(out, r.buf[:next])
		r.buf = r.buf[next:]
	}
	if len(r.buf) > r.maxBuffered {
		out = append(out, r.splitter.Split(r.buf)...)
		r.buf = nil
	}
	r.compact()
	return out
}

// Flush releases whatever is buffered, complete or not, cut at message starts.
func (r *Reassembler) Flush() []string {
	out := r.splitter.Split(r.buf)
	r.buf = nil
	return out
}

// frame inspects the message at the head of the buffer. It returns (length,
// true) when the whole message is present, (0, false) when more data is
// needed, and (-1, false) when the framing fields are malformed.
func (r *Reassembler) frame() (int, bool) {
	rest := r.buf[len(r.marker):]
	if len(rest) < 2 {
		if bytes.HasPrefix([]byte("9="), rest) {
			return 0, false
		}
		return -1, false
	}
	if rest[0] != '9' || rest[1] != '=' {
		return -1, false
	}
	end := bytes.IndexByte(rest, SOH[0])
	if end < 0 {
		if allDigits(rest[2:]) {
			return 0, false
		}
		return -1, false
	}
	bodyLen, err := strconv.Atoi(string(rest[2:end]))
	if err != nil || bodyLen < 0 || bodyLen > r.maxBody {
		return -1, false
	}

	total := len(r.marker) + end + 1 + bodyLen + trailerLen
	if len(r.buf) < total {
		// A new message starting inside the declared body means the length lied.
		if next := r.nextMarker(len(r.marker)); next >= 0 && next < total {
			return -1, false
		}
		return 0, false
	}
	trailer := r.buf[total-trailerLen : total]
	if !bytes.HasPrefix(trailer, []byte("10=")) || trailer[trailerLen-1] != SOH[0] {
		return -1, false
	}
	return total, true
}

// nextMarker finds a message start at or after from. Only markers at the head
// of the buffer or right after a separator count, so "58=FIX.4.4" inside a
// text field is not mistaken for one.
func (r *Reassembler) nextMarker(from int) int {
	for from <= len(r.buf)-len(r.marker) {
		i := bytes.Index(r.buf[from:], r.marker)
		if i < 0 {
			return -1
		}
		pos := from + i
		if pos == 0 || r.buf[pos-1] == SOH[0] {
			return pos
		}
		from = pos + 1
	}
	return -1
}

func (r *Reassembler) compact() {
	if len(r.buf) == 0 {
		r.buf = nil
		return
	}
	if cap(r.buf) > 4*len(r.buf) {
		r.buf = append([]byte(nil), r.buf...)
	}
}

func appendTrimmed(out []string, b []byte) []string {
	b = bytes.TrimRight(b, SOH)
	if len(b) == 0 {
		return out
	}
	return append(out, string(b))
}

func allDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
