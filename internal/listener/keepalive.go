package listener

import (
	"net"
	"time"

	"github.com/pires/go-proxyproto"
)

const defaultKeepaliveCount = 3

// Keepalive tunes TCP keepalive so a caller that vanished without closing
// is noticed and the modem reports NO CARRIER.
type Keepalive struct {
	// Idle is the time before the first probe; zero leaves the system default
	Idle time.Duration
	// Interval is the time between probes
	Interval time.Duration
	// Count is the number of unanswered probes before the connection is dropped
	Count int
}

// SetTCPKeepalive configures keepalive on conn. Connections that are not TCP
// are left alone.
func SetTCPKeepalive(conn net.Conn, ka Keepalive) error {
	if pc, ok := conn.(*proxyproto.Conn); ok {
		conn = pc.Raw()
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok || ka.Idle <= 0 {
		return nil
	}
	if ka.Interval <= 0 {
		ka.Interval = ka.Idle
	}
	if ka.Count <= 0 {
		ka.Count = defaultKeepaliveCount
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		return err
	}
	if err := tcpConn.SetKeepAlivePeriod(ka.Interval); err != nil {
		return err
	}
	return setKeepaliveOptions(tcpConn, ka)
}
