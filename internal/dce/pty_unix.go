//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package dce

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/creack/pty"
	"github.com/jaracil/tcpmodem"
	"golang.org/x/sys/unix"
)

// Pty is a POSIX pseudo terminal standing in for a serial port. Terminal
// software opens the slave side; the modem holds the master. DTR and RTS
// are reported raised while some process has the slave open.
type Pty struct {
	master *os.File
	name   string
	link   string
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
	lines  tcpmodem.ControlLines
	flow   tcpmodem.FlowControl
}

var _ tcpmodem.DCE = (*Pty)(nil)

// OpenPty creates a pseudo terminal in raw mode. When link is not empty a
// symlink to the slave device is created there and removed on Close.
func OpenPty(link string, log *slog.Logger) (*Pty, error) {
	if log == nil {
		log = slog.Default()
	}
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	name := slave.Name()
	if err := makeRaw(slave); err != nil {
		return nil, errors.Join(fmt.Errorf("raw mode %s: %w", name, err), master.Close(), slave.Close())
	}
	// Hang-up is only visible on the master once no one has the slave open,
	// including us.
	if err := slave.Close(); err != nil {
		master.Close()
		return nil, fmt.Errorf("close %s: %w", name, err)
	}

	p := &Pty{
		master: master,
		name:   name,
		log:    log.With("pty", name),
	}
	if link != "" {
		os.Remove(link)
		if err := os.Symlink(name, link); err != nil {
			master.Close()
			return nil, fmt.Errorf("link %s: %w", link, err)
		}
		p.link = link
	}
	p.log.Info("pty open", "link", link)
	return p, nil
}

// Name returns the slave device path.
func (p *Pty) Name() string {
	return p.name
}

// Close implements io.Closer.
func (p *Pty) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errLink error
	if p.link != "" {
		errLink = os.Remove(p.link)
	}
	return errors.Join(p.master.Close(), errLink)
}

// Read implements io.Reader. It fails while no terminal has the slave open.
func (p *Pty) Read(b []byte) (n int, err error) {
	return p.master.Read(b)
}

// Write implements io.Writer. Output is discarded while no terminal has the
// slave open, as the master would otherwise block once the buffer fills.
func (p *Pty) Write(b []byte) (n int, err error) {
	hup, err := p.IsSlaveClosed()
	if err == nil && hup {
		return len(b), nil
	}
	return p.master.Write(b)
}

func (p *Pty) control(f func(fd uintptr)) error {
	conn, err := p.master.SyscallConn()
	if err != nil {
		return err
	}
	return conn.Control(f)
}

// IsSlaveClosed checks if the slave end has no readers/writers.
func (p *Pty) IsSlaveClosed() (bool, error) {
	var (
		hup     bool
		pollErr error
	)
	err := p.control(func(fd uintptr) {
		fds := []unix.PollFd{{
			Fd:     int32(fd),
			Events: unix.POLLOUT,
		}}
		if _, pollErr = unix.Poll(fds, 0); pollErr != nil {
			return
		}
		// POLLHUP indicates that the slave has no processes with it open
		hup = fds[0].Revents&unix.POLLHUP != 0
	})
	if err != nil {
		return false, err
	}
	return hup, pollErr
}

// ControlLines reports DTR and RTS raised while the slave is open.
func (p *Pty) ControlLines() (tcpmodem.ControlLines, error) {
	hup, err := p.IsSlaveClosed()
	if err != nil {
		return 0, err
	}
	if hup {
		return 0, nil
	}
	return tcpmodem.LineDTR | tcpmodem.LineRTS, nil
}

// SetControlLines records the modem side signals. A pty has no wires to
// carry them.
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

// SetFlowControl records the requested discipline.
func (p *Pty) SetFlowControl(fc tcpmodem.FlowControl) error {
	p.mu.Lock()
	p.flow = fc
	p.mu.Unlock()
	p.log.Debug("flow control requested", "mode", fc)
	return nil
}

// makeRaw clears input, output and line processing on the slave, so bytes
// pass through untouched until the terminal program sets its own mode.
func makeRaw(f *os.File) error {
	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}
