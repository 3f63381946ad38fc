package tcpmodem

import (
	"encoding/hex"
	"log/slog"
	"net"
	"time"

	"github.com/nayarsystems/iotrace"
)

// Trace buffers are logged once they reach traceChunk bytes, after
// traceFlush of silence, or when the direction of the data changes.
const (
	traceChunk = 512
	traceFlush = 50 * time.Millisecond
)

func traceHook(log *slog.Logger, dir string) func([]byte) {
	return func(p []byte) {
		log.Debug("trace", "dir", dir, "len", len(p), "dump", hex.Dump(p))
	}
}

// tracedDCE logs the data moving through a DCE. Control lines and flow
// control go straight to the port.
type tracedDCE struct {
	DCE
	rwc *iotrace.RWCTracer
}

func traceDCE(d DCE, log *slog.Logger) *tracedDCE {
	return &tracedDCE{
		DCE: d,
		rwc: iotrace.NewRWCTracer(d, traceChunk, traceFlush,
			traceHook(log, "serial-out"), traceHook(log, "serial-in")),
	}
}

func (d *tracedDCE) Read(p []byte) (int, error)  { return d.rwc.Read(p) }
func (d *tracedDCE) Write(p []byte) (int, error) { return d.rwc.Write(p) }
func (d *tracedDCE) Close() error                { return d.rwc.Close() }

// tracedConn logs the data moving through a call.
type tracedConn struct {
	net.Conn
	rwc *iotrace.RWCTracer
}

func traceConn(conn net.Conn, log *slog.Logger) *tracedConn {
	return &tracedConn{
		Conn: conn,
		rwc: iotrace.NewRWCTracer(conn, traceChunk, traceFlush,
			traceHook(log, "ip-out"), traceHook(log, "ip-in")),
	}
}

func (c *tracedConn) Read(p []byte) (int, error)  { return c.rwc.Read(p) }
func (c *tracedConn) Write(p []byte) (int, error) { return c.rwc.Write(p) }
func (c *tracedConn) Close() error                { return c.rwc.Close() }
