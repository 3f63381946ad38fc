// Package nvt handles the telnet Network Virtual Terminal framing found on
// inbound modem connections: it recognises IAC sequences, answers option
// negotiation and hands the remaining data bytes to the serial line.
package nvt

// MaxSubnegotiation bounds the size of a pending SB ... IAC SE sequence.
// Longer unterminated sequences are dropped.
const MaxSubnegotiation = 512

// EventKind identifies what a scanned Event carries.
type EventKind int

const (
	// EventData is a run of plain bytes. IAC IAC has already been collapsed.
	EventData EventKind = iota
	// EventCommand is a two byte IAC <verb> sequence.
	EventCommand
	// EventNegotiation is IAC WILL/WONT/DO/DONT <option>.
	EventNegotiation
	// EventSubnegotiation is IAC SB <option> ... IAC SE.
	EventSubnegotiation
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "Data"
	case EventCommand:
		return "Command"
	case EventNegotiation:
		return "Negotiation"
	case EventSubnegotiation:
		return "Subnegotiation"
	default:
		return "Unknown"
	}
}

// Event is one protocol element of an inbound telnet stream.
type Event struct {
	Kind   EventKind
	Verb   byte
	Option byte
	Data   []byte
}

type scanner struct {
	buf    []byte
	pos    int
	run    []byte
	events []Event
}

func (s *scanner) remaining() int {
	return len(s.buf) - s.pos
}

func (s *scanner) flush() {
	if len(s.run) > 0 {
		s.events = append(s.events, Event{Kind: EventData, Data: s.run})
		s.run = nil
	}
}

func (s *scanner) emit(ev Event) {
	s.flush()
	s.events = append(s.events, ev)
}

// Scan splits buf into telnet events. A sequence cut short by the end of buf
// is not consumed: it is returned in rest so the caller can prepend it to
// the next read.
func Scan(buf []byte) (events []Event, rest []byte) {
	s := &scanner{buf: buf}
	for s.remaining() > 0 {
		b := s.buf[s.pos]
		if b != IAC {
			s.run = append(s.run, b)
			s.pos++
			continue
		}
		if s.remaining() < 2 {
			break
		}
		verb := s.buf[s.pos+1]
		switch verb {
		case IAC:
			s.run = append(s.run, IAC)
			s.pos += 2
		case WILL, WONT, DO, DONT:
			if s.remaining() < 3 {
				s.flush()
				return s.events, s.buf[s.pos:]
			}
			s.emit(Event{Kind: EventNegotiation, Verb: verb, Option: s.buf[s.pos+2]})
			s.pos += 3
		case SB:
			n, ev, ok := subnegotiation(s.buf[s.pos+2:])
			if !ok {
				s.flush()
				if s.remaining() > MaxSubnegotiation {
					return s.events, nil
				}
				return s.events, s.buf[s.pos:]
			}
			s.emit(ev)
			s.pos += 2 + n
		default:
			s.emit(Event{Kind: EventCommand, Verb: verb})
			s.pos += 2
		}
	}
	s.flush()
	if s.remaining() > 0 {
		return s.events, s.buf[s.pos:]
	}
	return s.events, nil
}

// subnegotiation parses the body of an SB sequence, p starting at the option
// byte. It returns the number of bytes consumed including the closing IAC SE.
func subnegotiation(p []byte) (int, Event, bool) {
	if len(p) == 0 {
		return 0, Event{}, false
	}
	ev := Event{Kind: EventSubnegotiation, Verb: SB, Option: p[0]}
	for i := 1; i < len(p); {
		if p[i] != IAC {
			ev.Data = append(ev.Data, p[i])
			i++
			continue
		}
		if i+1 >= len(p) {
			return 0, Event{}, false
		}
		switch p[i+1] {
		case SE:
			return i + 2, ev, true
		case IAC:
			ev.Data = append(ev.Data, IAC)
		}
		i += 2
	}
	return 0, Event{}, false
}

// Escape doubles every IAC byte in p so it travels as data.
func Escape(p []byte) []byte {
	n := 0
	for _, b := range p {
		if b == IAC {
			n++
		}
	}
	if n == 0 {
		return p
	}
	out := make([]byte, 0, len(p)+n)
	for _, b := range p {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	return out
}
