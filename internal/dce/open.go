package dce

import (
	"log/slog"

	"github.com/jaracil/tcpmodem"
)

// PtyDevice selects a pseudo terminal instead of a serial port.
const PtyDevice = "pty"

// Port is a DCE with a device name.
type Port interface {
	tcpmodem.DCE
	Name() string
}

// Open opens device at speed bps, or a pseudo terminal linked at link when
// device is PtyDevice.
func Open(device string, speed int, link string, log *slog.Logger) (Port, error) {
	if device == PtyDevice {
		p, err := OpenPty(link, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	s, err := OpenSerial(device, speed, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}
