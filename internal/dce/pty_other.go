//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package dce

import (
	"fmt"
	"log/slog"
	"sync"

	gopty "github.com/aymanbagabas/go-pty"
	"github.com/jaracil/tcpmodem"
)

// Pty is a pseudo console standing in for a serial port. Whether a terminal
// is attached cannot be sensed here, so DTR and RTS always read raised.
type Pty struct {
	pty gopty.Pty
	log *slog.Logger

	mu    sync.Mutex
	lines tcpmodem.ControlLines
	flow  tcpmodem.FlowControl
}

var _ tcpmodem.DCE = (*Pty)(nil)

// OpenPty creates a pseudo console. Symlinks are not supported and link
// must be empty.
func OpenPty(link string, log *slog.Logger) (*Pty, error) {
	if log == nil {
		log = slog.Default()
	}
	if link != "" {
		return nil, fmt.Errorf("pty link %s: not supported on this platform", link)
	}
	p, err := gopty.New()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	log.Info("pty open", "pty", p.Name())
	return &Pty{pty: p, log: log.With("pty", p.Name())}, nil
}

// Name returns the console name.
func (p *Pty) Name() string {
	return p.pty.Name()
}

func (p *Pty) Read(b []byte) (int, error) {
	return p.pty.Read(b)
}

func (p *Pty) Write(b []byte) (int, error) {
	return p.pty.Write(b)
}

func (p *Pty) Close() error {
	return p.pty.Close()
}

func (p *Pty) ControlLines() (tcpmodem.ControlLines, error) {
	return tcpmodem.LineDTR | tcpmodem.LineRTS, nil
}

func (p *Pty) SetControlLines(lines tcpmodem.ControlLines) error {
	p.mu.Lock()
	p.lines = lines
	p.mu.Unlock()
	return nil
}

// Lines returns the signals last set with SetControlLines.
func (p *Pty) Lines() tcpmodem.ControlLines {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

func (p *Pty) SetFlowControl(fc tcpmodem.FlowControl) error {
	p.mu.Lock()
	p.flow = fc
	p.mu.Unlock()
	p.log.Debug("flow control requested", "mode", fc)
	return nil
}
