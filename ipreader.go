package tcpmodem

import (
	"context"
	"net"
)

const ipReadSize = 512

type readResult struct {
	conn net.Conn
	data []byte
	err  error
}

// sockPump performs one socket read per request, so the IP reader decides
// when the peer is read at all.
type sockPump struct {
	conn    net.Conn
	want    chan struct{}
	done    chan struct{}
	results chan<- readResult
}

func startPump(conn net.Conn, results chan<- readResult) *sockPump {
	p := &sockPump{
		conn:    conn,
		want:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		results: results,
	}
	go p.run()
	return p
}

func (p *sockPump) run() {
	buf := make([]byte, ipReadSize)
	for {
		select {
		case <-p.done:
			return
		case <-p.want:
		}
		n, err := p.conn.Read(buf)
		r := readResult{conn: p.conn, err: err}
		if n > 0 {
			r.data = append([]byte(nil), buf[:n]...)
		}
		select {
		case p.results <- r:
		case <-p.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (p *sockPump) stop() {
	close(p.done)
}

// ipReader moves peer data to the DTE while the call is online. After it
// reports a hang-up it stops reading until the bridge sends a new gate.
func (m *Modem) ipReader(ctx context.Context) {
	log := m.log.With("component", "ip")
	results := make(chan readResult, 1)
	var (
		gate    ipGate
		pump    *sockPump
		reading bool
		pending bool
		held    []byte
	)
	defer func() {
		if pump != nil {
			pump.stop()
		}
	}()

	for {
		if gate.online && gate.conn != nil && !pending {
			if len(held) > 0 {
				m.deliver(gate, held)
				held = nil
			}
			if pump == nil || pump.conn != gate.conn {
				if pump != nil {
					pump.stop()
				}
				pump = startPump(gate.conn, results)
				reading = false
			}
			if !reading {
				pump.want <- struct{}{}
				reading = true
			}
		}

		select {
		case <-ctx.Done():
			return
		case g := <-m.notifyCh:
			log.Debug("ip reader notified", "msg", msgNotify, "online", g.online)
			pending = false
			if g.conn != gate.conn {
				held = nil
			}
			gate = g
		case r := <-results:
			if pump == nil || r.conn != pump.conn {
				continue
			}
			reading = false
			if len(r.data) > 0 {
				switch {
				case r.conn != gate.conn:
					// left over from a call that is gone
				case gate.online:
					m.deliver(gate, r.data)
				default:
					held = append(held, r.data...)
				}
			}
			if r.err == nil {
				continue
			}
			pump.stop()
			pump = nil
			if r.conn != gate.conn {
				continue
			}
			log.Info("no socket data read, assume closed peer", "err", r.err)
			pending = true
			select {
			case m.ipCh <- ipEvent{msg: msgDisconnect, conn: r.conn}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// deliver runs peer data through the NVT translator to the DTE.
func (m *Modem) deliver(g ipGate, data []byte) {
	m.stats.update(func(s *Metrics) { s.LineRxBytes += len(data) })
	if _, err := g.tr.Translate(serialWriter{m}, data); err != nil {
		m.log.Debug("serial write failed", "component", "ip", "err", err)
	}
}
