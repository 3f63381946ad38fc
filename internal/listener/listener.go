// Package listener accepts incoming calls for the modem over TCP.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/pires/go-proxyproto"
)

// Config describes where and how calls are accepted.
type Config struct {
	// Addr is the TCP listen address, for example ":6400"
	Addr string
	// ProxyProtocol expects a PROXY protocol header from a load balancer
	// in front of the modem, so logs show the real caller
	ProxyProtocol bool
	// Keepalive tunes dead peer detection on accepted calls
	Keepalive Keepalive
	// Logger receives structured logs (default: slog.Default())
	Logger *slog.Logger
}

// Handler receives each accepted connection. It runs on the accept loop, so
// the next call is not accepted until it returns.
type Handler func(ctx context.Context, conn net.Conn)

// Listener accepts incoming calls.
type Listener struct {
	cfg Config
	ln  net.Listener
	log *slog.Logger
}

// Listen opens the listening socket.
func Listen(cfg Config) (*Listener, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if cfg.ProxyProtocol {
		ln = &proxyproto.Listener{Listener: ln}
		log.Info("PROXY protocol enabled")
	}
	log.Info("listening", "addr", ln.Addr())
	return &Listener{cfg: cfg, ln: ln, log: log}, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting calls.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Serve accepts calls and passes them to handle until ctx is cancelled or
// the listener is closed. It returns nil on cancellation.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.log.Warn("accept error", "err", err)
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		if err := SetTCPKeepalive(conn, l.cfg.Keepalive); err != nil {
			l.log.Warn("failed to set TCP keepalive", "remote", conn.RemoteAddr(), "err", err)
		}
		l.log.Debug("connection accepted", "remote", conn.RemoteAddr())
		handle(ctx, conn)
	}
}
