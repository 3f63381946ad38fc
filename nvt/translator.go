package nvt

import (
	"io"
	"sync/atomic"
)

// ChunkSize is the largest block of plain data handed to the line in one write.
const ChunkSize = 1024

// Negotiator receives the control sequences stripped from the stream.
type Negotiator interface {
	Negotiate(verb, option byte)
	Subnegotiate(option byte, data []byte)
}

// Translator holds the NVT state of one connection. The first byte ever
// received decides whether the connection is telnet: only a leading IAC
// turns interpretation on, and the decision is never revisited.
//
// Translate must be called from a single goroutine; Telnet is safe to call
// from any goroutine.
type Translator struct {
	neg     Negotiator
	started bool
	telnet  atomic.Bool
	carry   []byte
}

// NewTranslator returns the state for a fresh connection. neg may be nil, in
// which case negotiation requests are dropped.
func NewTranslator(neg Negotiator) *Translator {
	return &Translator{neg: neg}
}

// Telnet reports whether the connection was detected as telnet.
func (t *Translator) Telnet() bool {
	return t.telnet.Load()
}

// Translate forwards the plain data contained in in to w and returns how many
// data bytes were written. Sequences split across calls are reassembled.
func (t *Translator) Translate(w io.Writer, in []byte) (int, error) {
	if len(in) == 0 {
		return 0, nil
	}
	if !t.started {
		t.started = true
		if in[0] == IAC {
			t.telnet.Store(true)
		}
	}
	if !t.Telnet() {
		return w.Write(in)
	}

	buf := in
	if len(t.carry) > 0 {
		buf = append(t.carry, in...)
		t.carry = nil
	}
	events, rest := Scan(buf)
	if len(rest) > 0 {
		t.carry = append([]byte(nil), rest...)
	}

	var (
		chunk   = make([]byte, 0, ChunkSize)
		written int
	)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := w.Write(chunk)
		written += n
		chunk = chunk[:0]
		return err
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventData:
			data := ev.Data
			for len(data) > 0 {
				n := copy(chunk[len(chunk):cap(chunk)], data)
				chunk = chunk[:len(chunk)+n]
				data = data[n:]
				if len(chunk) == cap(chunk) {
					if err := flush(); err != nil {
						return written, err
					}
				}
			}
		case EventNegotiation:
			if t.neg != nil {
				t.neg.Negotiate(ev.Verb, ev.Option)
			}
		case EventSubnegotiation:
			if t.neg != nil {
				t.neg.Subnegotiate(ev.Option, ev.Data)
			}
		}
	}
	err := flush()
	return written, err
}
