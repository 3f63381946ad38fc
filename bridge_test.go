package tcpmodem

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

const testWait = 2 * time.Second

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitOutput(t *testing.T, dce *fakeDCE, want string) {
	t.Helper()
	waitFor(t, "DTE output "+want, func() bool {
		return strings.Contains(dce.Output(), want)
	})
}

// peer is the far end of a call. Everything it receives is recorded.
type peer struct {
	conn net.Conn
	mu   sync.Mutex
	buf  bytes.Buffer
	done chan struct{}
}

func newPeer(t *testing.T, conn net.Conn) *peer {
	p := &peer{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		b := make([]byte, 256)
		for {
			n, err := conn.Read(b)
			p.mu.Lock()
			p.buf.Write(b[:n])
			p.mu.Unlock()
			if err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return p
}

func (p *peer) Received() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func (p *peer) Send(t *testing.T, s string) {
	t.Helper()
	p.conn.SetWriteDeadline(time.Now().Add(testWait))
	if _, err := p.conn.Write([]byte(s)); err != nil {
		t.Fatalf("peer write: %v", err)
	}
}

func (p *peer) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// startModem runs a modem on a fake serial port with fast timers.
func startModem(t *testing.T, cfg Config) (*Modem, *fakeDCE) {
	t.Helper()
	cfg.PollInterval = 2 * time.Millisecond
	if cfg.RingInterval == 0 {
		cfg.RingInterval = 30 * time.Millisecond
	}
	cfg.GuardUnit = time.Millisecond
	cfg.EscapeWindow = 40 * time.Millisecond
	m, dce := newTestModem(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
		dce.Close()
	})
	select {
	case <-m.Ready():
	case <-time.After(testWait):
		t.Fatal("modem not ready")
	}
	return m, dce
}

// call places an incoming call and returns its far end.
func call(t *testing.T, m *Modem) *peer {
	t.Helper()
	near, far := net.Pipe()
	p := newPeer(t, far)
	if err := m.IncomingCall(context.Background(), near); err != nil {
		t.Fatalf("IncomingCall() = %v", err)
	}
	return p
}

func TestBridge_IncomingCallDataAndHangup(t *testing.T) {
	m, dce := startModem(t, Config{InitString: "ATS0=1"})

	p := call(t, m)
	waitOutput(t, dce, "RING")
	waitOutput(t, dce, "CONNECT 38400")
	waitFor(t, "status Connected", func() bool { return m.StatusSync() == StatusConnected })

	p.Send(t, "hello from peer")
	waitOutput(t, dce, "hello from peer")

	dce.Type("hello from dte")
	waitFor(t, "peer data", func() bool { return strings.Contains(p.Received(), "hello from dte") })

	p.conn.Close()
	waitOutput(t, dce, "NO CARRIER")
	waitFor(t, "status Idle", func() bool { return m.StatusSync() == StatusIdle })

	metrics := m.MetricsSync()
	if metrics.NumInConns != 1 || metrics.LineRxBytes < len("hello from peer") {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestBridge_RingUntilAnswered(t *testing.T) {
	m, dce := startModem(t, Config{RingInterval: 80 * time.Millisecond})

	call(t, m)
	waitFor(t, "three rings", func() bool { return strings.Count(dce.Output(), "RING") >= 3 })
	if m.StatusSync() != StatusRinging {
		t.Errorf("status = %v, want Ringing", m.StatusSync())
	}
	if m.RegisterSync(RegRingCount) < 3 {
		t.Errorf("S1 = %d", m.RegisterSync(RegRingCount))
	}

	dce.Type("ATA\r")
	waitOutput(t, dce, "CONNECT")
	waitFor(t, "status Connected", func() bool { return m.StatusSync() == StatusConnected })
}

func TestBridge_EscapeAndHangup(t *testing.T) {
	m, dce := startModem(t, Config{InitString: "ATS0=1"})

	p := call(t, m)
	waitOutput(t, dce, "CONNECT")

	// longer than the guard time (S12 x 1ms)
	time.Sleep(150 * time.Millisecond)
	dce.ClearOutput()
	dce.Type("+++")
	waitOutput(t, dce, "OK")
	waitFor(t, "status ConnectedCmd", func() bool { return m.StatusSync() == StatusConnectedCmd })
	waitFor(t, "escape characters at the peer", func() bool { return strings.Contains(p.Received(), "+++") })

	p.Send(t, "held")
	time.Sleep(50 * time.Millisecond)
	if strings.Contains(dce.Output(), "held") {
		t.Error("peer data reached the DTE in command mode")
	}

	dce.Type("ATO\r")
	waitOutput(t, dce, "held")

	time.Sleep(150 * time.Millisecond)
	dce.Type("+++")
	waitFor(t, "second escape", func() bool { return m.StatusSync() == StatusConnectedCmd })
	dce.Type("ATH0\r")
	waitOutput(t, dce, "NO CARRIER")
	waitFor(t, "peer hung up", p.closed)
}

func TestBridge_TelnetPeer(t *testing.T) {
	m, dce := startModem(t, Config{InitString: "ATS0=1"})

	p := call(t, m)
	waitOutput(t, dce, "CONNECT")

	// IAC WILL ECHO, then text containing an escaped IAC
	p.Send(t, "\xff\xfb\x01hi\xff\xffthere")
	waitOutput(t, dce, "hi\xffthere")
	if strings.Contains(dce.Output(), "\xfb") {
		t.Errorf("negotiation leaked to the DTE: %q", dce.Output())
	}

	dce.Type("a\xffb")
	waitFor(t, "escaped IAC", func() bool { return strings.Contains(p.Received(), "a\xff\xffb") })
}

func TestBridge_DTRDropHangsUp(t *testing.T) {
	m, dce := startModem(t, Config{InitString: "ATS0=1"})

	p := call(t, m)
	waitOutput(t, dce, "CONNECT")
	waitFor(t, "DCD raised", func() bool { return dce.Lines().Has(LineDCD) })

	dce.SetDTR(false)
	waitOutput(t, dce, "NO CARRIER")
	waitFor(t, "peer hung up", p.closed)
	if dce.Lines().Has(LineDCD) {
		t.Error("DCD still raised")
	}
}

func TestBridge_BusyAndOutgoing(t *testing.T) {
	near, far := net.Pipe()
	dialed := make(chan string, 1)
	m, dce := startModem(t, Config{
		OutgoingCall: func(ctx context.Context, m *Modem, number string) (net.Conn, error) {
			dialed <- number
			return near, nil
		},
	})
	p := newPeer(t, far)

	dce.Type("ATDT 555-1234\r")
	waitOutput(t, dce, "CONNECT")
	if got := <-dialed; got != "555-1234" {
		t.Errorf("dialed %q", got)
	}

	busyNear, busyFar := net.Pipe()
	busy := newPeer(t, busyFar)
	if err := m.IncomingCall(context.Background(), busyNear); !errors.Is(err, ErrModemBusy) {
		t.Errorf("IncomingCall() = %v, want ErrModemBusy", err)
	}
	waitFor(t, "busy caller hung up", busy.closed)
	if busy.Received() != "BUSY\n" {
		t.Errorf("busy caller received %q", busy.Received())
	}
	if p.closed() {
		t.Error("busy caller disturbed the call in progress")
	}
}

func TestBridge_RunTwice(t *testing.T) {
	m, _ := startModem(t, Config{})
	if err := m.Run(context.Background()); !errors.Is(err, ErrModemBusy) {
		t.Errorf("second Run() = %v, want ErrModemBusy", err)
	}
}

func TestIncomingCall_NotRunning(t *testing.T) {
	m, _ := newTestModem(t, Config{})
	select {
	case <-m.Ready():
		t.Fatal("ready before Run")
	default:
	}
	near, far := net.Pipe()
	defer far.Close()
	defer near.Close()
	if err := m.IncomingCall(context.Background(), near); !errors.Is(err, ErrClosed) {
		t.Errorf("IncomingCall() = %v, want ErrClosed", err)
	}
}
