//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package dce

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaracil/tcpmodem"
	"golang.org/x/sys/unix"
)

// Test OpenPty function
func TestOpenPty(t *testing.T) {
	pty, err := OpenPty("", quietLogger())
	if err != nil {
		t.Fatalf("OpenPty() error = %v, want nil", err)
	}
	defer pty.Close()

	if pty.Name() == "" {
		t.Error("Name() returned empty string")
	}

	// nobody has the slave open
	lines, err := pty.ControlLines()
	if err != nil {
		t.Fatalf("ControlLines() error = %v", err)
	}
	if lines.Has(tcpmodem.LineDTR) {
		t.Error("DTR raised with no terminal attached")
	}

	// output is dropped rather than blocking
	if n, err := pty.Write([]byte("RING")); err != nil || n != 4 {
		t.Errorf("Write() = %d, %v", n, err)
	}
}

func TestPty_TerminalAttach(t *testing.T) {
	pty, err := OpenPty("", quietLogger())
	if err != nil {
		t.Fatalf("OpenPty() error = %v", err)
	}
	defer pty.Close()

	term, err := os.OpenFile(pty.Name(), os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Fatalf("open slave: %v", err)
	}

	lines, err := pty.ControlLines()
	if err != nil {
		t.Fatalf("ControlLines() error = %v", err)
	}
	if !lines.Has(tcpmodem.LineDTR | tcpmodem.LineRTS) {
		t.Errorf("lines = %v with terminal attached", lines)
	}

	if _, err := term.Write([]byte("AT\r")); err != nil {
		t.Fatalf("terminal write: %v", err)
	}
	buf := make([]byte, 16)
	n, err := pty.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	// raw mode keeps the CR
	if string(buf[:n]) != "AT\r" {
		t.Errorf("Read() = %q, want %q", buf[:n], "AT\r")
	}

	if _, err := pty.Write([]byte("\r\nOK\r\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	n, err = term.Read(buf)
	if err != nil {
		t.Fatalf("terminal read: %v", err)
	}
	if string(buf[:n]) != "\r\nOK\r\n" {
		t.Errorf("terminal read %q", buf[:n])
	}

	term.Close()
	deadline := time.Now().Add(time.Second)
	for {
		lines, err = pty.ControlLines()
		if err == nil && !lines.Has(tcpmodem.LineDTR) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("DTR still raised after the terminal closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Test PTY Close operation
func TestPty_Close(t *testing.T) {
	link := filepath.Join(t.TempDir(), "ttyModem")
	pty, err := OpenPty(link, quietLogger())
	if err != nil {
		t.Fatalf("OpenPty() error = %v", err)
	}

	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != pty.Name() {
		t.Errorf("link points at %q, want %q", target, pty.Name())
	}

	if err := pty.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Error("link not removed on Close")
	}

	// Second close should not error
	if err := pty.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}

	if _, err := pty.Read(make([]byte, 1)); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Read() after Close = %v, want os.ErrClosed", err)
	}
}

func TestPty_RecordsSettings(t *testing.T) {
	pty, err := OpenPty("", quietLogger())
	if err != nil {
		t.Fatalf("OpenPty() error = %v", err)
	}
	defer pty.Close()

	if err := pty.SetControlLines(tcpmodem.LineDSR | tcpmodem.LineCTS); err != nil {
		t.Fatal(err)
	}
	if pty.Lines() != tcpmodem.LineDSR|tcpmodem.LineCTS {
		t.Errorf("Lines() = %v", pty.Lines())
	}
	if err := pty.SetFlowControl(tcpmodem.FlowRTSCTS); err != nil {
		t.Error(err)
	}
}
