package tcpmodem

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jaracil/tcpmodem/nvt"
)

// message is the alphabet spoken between the bridge and its helpers.
type message byte

const (
	msgAccept     message = 'a' // acceptor -> bridge
	msgAccepted   message = 'A' // bridge -> acceptor
	msgBusy       message = 'B' // bridge -> acceptor
	msgDTRUp      message = 'U' // watcher -> bridge
	msgDTRDown    message = 'D' // watcher -> bridge
	msgDisconnect message = 'd' // ip reader -> bridge
	msgNotify     message = 'n' // bridge -> ip reader
)

func (msg message) String() string {
	switch msg {
	case msgAccept:
		return "ACCEPT"
	case msgAccepted:
		return "ACCEPTED"
	case msgBusy:
		return "BUSY"
	case msgDTRUp:
		return "DTR_UP"
	case msgDTRDown:
		return "DTR_DOWN"
	case msgDisconnect:
		return "DISCONNECT"
	case msgNotify:
		return "NOTIFY"
	default:
		return "UNKNOWN"
	}
}

type acceptRequest struct {
	conn  net.Conn
	reply chan message
}

type ipEvent struct {
	msg  message
	conn net.Conn
}

// ipGate tells the IP reader which connection to read and whether its data
// may flow to the DTE.
type ipGate struct {
	conn   net.Conn
	tr     *nvt.Translator
	online bool
}

// Run drives the modem until ctx is cancelled. It owns all call state: DTE
// input, DTR edges, peer hang-ups, incoming calls and the single modem timer
// are handled one at a time on this goroutine.
//
// Returns ErrModemBusy if Run is already active, otherwise ctx.Err().
func (m *Modem) Run(ctx context.Context) error {
	m.Lock()
	if m.running {
		m.Unlock()
		return ErrModemBusy
	}
	m.running = true
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.ctx = ctx

	m.setControlLines()
	m.runInit()
	m.line.disconnect()
	m.lastConnected = m.connected
	m.lastOnline = m.connected && !m.cmdMode
	m.updateStatus()
	m.Unlock()
	m.readyOnce.Do(func() { close(m.ready) })

	m.log.Info("modem running", "dte_speed", m.cfg.DTESpeed, "dce_speed", m.cfg.DCESpeed)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.controlWatcher(ctx)
	}()
	go func() {
		defer wg.Done()
		m.ipReader(ctx)
	}()
	go m.serialReader(ctx)

	for {
		m.Lock()
		m.syncEdges()
		d, kind := m.nextTimeout()
		m.Unlock()

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if kind != timerNone {
			timer = time.NewTimer(d)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			m.Lock()
			m.line.disconnect()
			m.running = false
			m.ctx = context.Background()
			m.Unlock()
			wg.Wait()
			m.log.Info("modem stopped")
			return ctx.Err()
		case <-timerC:
			m.Lock()
			m.handleTimer(kind)
			m.Unlock()
		case p := <-m.serialCh:
			m.Lock()
			m.parseData(p)
			m.Unlock()
		case msg := <-m.ctrlCh:
			m.log.Debug("control line message", "msg", msg)
			if msg == msgDTRDown {
				m.Lock()
				m.disconnect()
				m.Unlock()
			}
		case ev := <-m.ipCh:
			m.log.Debug("ip reader message", "msg", ev.msg)
			m.Lock()
			if ev.msg == msgDisconnect && ev.conn == m.line.conn {
				m.disconnect()
			}
			m.Unlock()
		case req := <-m.acceptCh:
			m.log.Debug("acceptor message", "msg", msgAccept)
			m.Lock()
			reply := m.accept(req.conn)
			m.Unlock()
			req.reply <- reply
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// syncEdges reports call state changes to the IP reader and greets the peer
// when a call comes up.
func (m *Modem) syncEdges() {
	online := m.connected && !m.cmdMode
	if m.connected != m.lastConnected || online != m.lastOnline {
		m.notifyIPReader(ipGate{conn: m.line.conn, tr: m.line.nvt, online: online})
		if m.connected && !m.lastConnected {
			m.line.sendPayload(m.cfg.ConnectFile, "")
		}
		m.lastConnected = m.connected
		m.lastOnline = online
	}
	m.updateStatus()
}

// notifyIPReader replaces any gate the reader has not picked up yet, so the
// bridge never blocks on it.
func (m *Modem) notifyIPReader(g ipGate) {
	for {
		select {
		case m.notifyCh <- g:
			return
		default:
		}
		select {
		case <-m.notifyCh:
		default:
		}
	}
}

// accept takes an incoming connection. A caller arriving while the line is
// in use gets the busy payload and is hung up on.
func (m *Modem) accept(conn net.Conn) message {
	if m.line.valid() || m.offHook {
		m.log.Info("line busy, refusing caller", "remote", conn.RemoteAddr())
		conn.SetWriteDeadline(time.Now().Add(lineWriteTimeout))
		sendPayload(conn, m.cfg.BusyFile, busyText, m.log)
		conn.Close()
		m.stats.update(func(s *Metrics) { s.NumBusy++ })
		return msgBusy
	}
	m.log.Info("incoming call", "remote", conn.RemoteAddr())
	m.line.attach(conn)
	m.rings = 0
	m.sendRing()
	return msgAccepted
}

// IncomingCall hands a freshly accepted connection to the modem, which starts
// ringing. If a call is already in progress the caller is sent the busy
// payload, conn is closed and ErrModemBusy is returned. ErrClosed means the
// modem is not running.
func (m *Modem) IncomingCall(ctx context.Context, conn net.Conn) error {
	m.Lock()
	running := m.running
	m.Unlock()
	if !running {
		return ErrClosed
	}
	reply := make(chan message, 1)
	select {
	case m.acceptCh <- acceptRequest{conn: conn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case r := <-reply:
		if r == msgBusy {
			return ErrModemBusy
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isClosed(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// serialReader pumps DTE input to the bridge. Read errors other than a
// closed port are retried after the poll interval: a pty reports errors
// while no terminal has it open.
func (m *Modem) serialReader(ctx context.Context) {
	log := m.log.With("component", "serial")
	buf := make([]byte, 256)
	for {
		n, err := m.dce.Read(buf)
		if n > 0 {
			p := append([]byte(nil), buf[:n]...)
			select {
			case m.serialCh <- p:
			case <-ctx.Done():
				return
			}
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil || isClosed(err) {
			log.Debug("serial reader stopped", "err", err)
			return
		}
		log.Debug("serial read failed", "err", err)
		select {
		case <-time.After(m.cfg.PollInterval):
		case <-ctx.Done():
			return
		}
	}
}
