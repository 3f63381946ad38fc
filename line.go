package tcpmodem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/jaracil/nagle"
	"github.com/jaracil/tcpmodem/nvt"
)

const (
	noAnswerText = "NO ANSWER\n"
	busyText     = "BUSY\n"
	defaultPort  = "23"

	// DTE data is coalesced into segments of up to lineChunk bytes, sent
	// after lineFlush without new data.
	lineChunk = 1460
	lineFlush = 20 * time.Millisecond
)

// lineWriteTimeout bounds every write to the peer so a caller that stops
// reading cannot stall the bridge.
var lineWriteTimeout = 30 * time.Second

// ipLine is the telephone line of the modem: at most one TCP connection,
// either accepted from a caller or dialed with ATD. It is only touched by
// the bridge goroutine.
type ipLine struct {
	m    *Modem
	log  *slog.Logger
	conn net.Conn
	out  *nagle.NagleWrapper
	nvt  *nvt.Translator
}

func newIPLine(m *Modem) *ipLine {
	return &ipLine{m: m, log: m.log.With("component", "line")}
}

// valid reports whether a connection is attached, answered or not.
func (l *ipLine) valid() bool {
	return l.conn != nil
}

// attach makes conn the current call with fresh NVT state. Everything sent
// to the peer goes through out, which coalesces the small writes a serial
// port produces.
func (l *ipLine) attach(conn net.Conn) {
	if l.m.cfg.Trace {
		conn = traceConn(conn, l.log)
	}
	l.conn = conn
	l.out = nagle.NewNagleWrapper(conn, lineChunk, lineFlush)
	l.nvt = nvt.NewTranslator(nvt.NewResponder(l.out))
	l.log.Debug("line attached", "remote", conn.RemoteAddr())
}

func (l *ipLine) offHook() {
	l.log.Debug("line off hook")
}

func (l *ipLine) listen() {
	l.log.Debug("line listening")
}

// connect places an outgoing call, waiting at most S7 seconds for it.
func (l *ipLine) connect(number string) error {
	if l.conn != nil {
		l.disconnect()
	}
	ctx := l.m.ctx
	if wait := l.m.regs[RegWaitCarrier]; wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(wait)*time.Second)
		defer cancel()
	}
	l.log.Info("dialing", "number", number)
	conn, err := l.m.outgoingCall(ctx, l.m, number)
	if err != nil {
		return fmt.Errorf("dial %q: %w", number, err)
	}
	if conn == nil {
		return fmt.Errorf("dial %q: %w", number, ErrNoCarrier)
	}
	l.attach(conn)
	return nil
}

// disconnect hangs up the current connection, if any. Data still buffered
// for the peer is flushed first.
func (l *ipLine) disconnect() {
	if l.conn == nil {
		return
	}
	l.log.Debug("line hang up", "remote", l.conn.RemoteAddr())
	l.conn.SetWriteDeadline(time.Now().Add(lineWriteTimeout))
	if err := l.out.Close(); err != nil {
		l.log.Debug("close failed", "err", err)
	}
	l.conn = nil
	l.out = nil
	l.nvt = nil
}

// write sends DTE data to the peer, escaping IAC on telnet connections.
func (l *ipLine) write(p []byte) {
	if l.conn == nil {
		return
	}
	if l.nvt.Telnet() {
		p = nvt.Escape(p)
	}
	l.conn.SetWriteDeadline(time.Now().Add(lineWriteTimeout))
	if _, err := l.out.Write(p); err != nil {
		l.log.Debug("line write failed", "err", err)
		return
	}
	l.m.stats.update(func(s *Metrics) { s.LineTxBytes += len(p) })
}

// sendPayload streams the file at path to the peer verbatim, or fallback when
// no file is configured.
func (l *ipLine) sendPayload(path, fallback string) {
	if l.conn != nil {
		l.conn.SetWriteDeadline(time.Now().Add(lineWriteTimeout))
		sendPayload(l.out, path, fallback, l.log)
	}
}

func sendPayload(w io.Writer, path, fallback string, log *slog.Logger) {
	if path == "" {
		if fallback != "" {
			if _, err := io.WriteString(w, fallback); err != nil {
				log.Debug("payload write failed", "err", err)
			}
		}
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn("cannot open payload file", "path", path, "err", err)
		return
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		log.Debug("payload write failed", "path", path, "err", err)
	}
}

// dialPhonebook is the default OutgoingCall. The number is looked up in the
// phone book, first verbatim and then reduced to its digits; otherwise it is
// taken as host[:port].
func dialPhonebook(ctx context.Context, m *Modem, number string) (net.Conn, error) {
	addr, err := resolveNumber(m.cfg.Phonebook, number)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func resolveNumber(book map[string]string, number string) (string, error) {
	number = strings.TrimSpace(number)
	if addr, ok := book[number]; ok {
		return addr, nil
	}
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '*' || r == '#' {
			return r
		}
		return -1
	}, number)
	if addr, ok := book[digits]; ok && digits != "" {
		return addr, nil
	}
	if number == "" || strings.ContainsAny(number, " ,;") {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}
	if _, _, err := net.SplitHostPort(number); err != nil {
		return net.JoinHostPort(number, defaultPort), nil
	}
	return number, nil
}
