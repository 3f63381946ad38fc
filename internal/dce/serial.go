// Package dce provides the serial side of the modem: a real serial port, or
// a pseudo terminal that terminal software can open as if it were one.
package dce

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jaracil/tcpmodem"
	"go.bug.st/serial"
)

// Serial is a serial port with a terminal wired to it through a null modem
// cable. The terminal's DTR arrives on our DSR and its RTS on our CTS; our
// DTR drives its DSR and DCD and our RTS drives its CTS.
type Serial struct {
	port serial.Port
	name string
	log  *slog.Logger

	mu   sync.Mutex
	flow tcpmodem.FlowControl
}

var _ tcpmodem.DCE = (*Serial)(nil)

// OpenSerial opens the named port at speed bps, 8N1.
func OpenSerial(name string, speed int, log *slog.Logger) (*Serial, error) {
	if log == nil {
		log = slog.Default()
	}
	mode := &serial.Mode{
		BaudRate: speed,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	log.Info("serial port open", "port", name, "speed", speed)
	return &Serial{
		port: port,
		name: name,
		log:  log.With("port", name),
	}, nil
}

// ListPorts returns the serial ports found on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Name returns the device path.
func (s *Serial) Name() string {
	return s.name
}

func (s *Serial) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	return n, mapError(err)
}

func (s *Serial) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	return n, mapError(err)
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// ControlLines reads the terminal's DTR and RTS.
func (s *Serial) ControlLines() (tcpmodem.ControlLines, error) {
	bits, err := s.port.GetModemStatusBits()
	if err != nil {
		return 0, mapError(err)
	}
	var lines tcpmodem.ControlLines
	if bits.DSR {
		lines |= tcpmodem.LineDTR
	}
	if bits.CTS {
		lines |= tcpmodem.LineRTS
	}
	return lines, nil
}

// SetControlLines drives our DTR from DCD and our RTS from CTS. DSR has no
// wire of its own and rides along with DCD.
func (s *Serial) SetControlLines(lines tcpmodem.ControlLines) error {
	if err := s.port.SetDTR(lines.Has(tcpmodem.LineDCD)); err != nil {
		return fmt.Errorf("set DTR: %w", mapError(err))
	}
	if err := s.port.SetRTS(lines.Has(tcpmodem.LineCTS)); err != nil {
		return fmt.Errorf("set RTS: %w", mapError(err))
	}
	return nil
}

// SetFlowControl records the requested discipline. The port driver has no
// flow control setting, so the terminal must be configured to match.
func (s *Serial) SetFlowControl(fc tcpmodem.FlowControl) error {
	s.mu.Lock()
	s.flow = fc
	s.mu.Unlock()
	s.log.Debug("flow control requested", "mode", fc)
	return nil
}

// FlowControl returns the last discipline set with SetFlowControl.
func (s *Serial) FlowControl() tcpmodem.FlowControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

// mapError turns a closed port into os.ErrClosed so readers know to stop.
func mapError(err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
		return fmt.Errorf("%w: %w", os.ErrClosed, err)
	}
	return err
}
