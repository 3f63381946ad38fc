package tcpmodem

import (
	"io"
	"strings"
)

//go:generate mockgen -destination=mock_dce_test.go -package=tcpmodem . DCE

// ControlLines is a set of RS-232 control signals.
type ControlLines uint8

const (
	// LineDTR is Data Terminal Ready, driven by the DTE
	LineDTR ControlLines = 1 << iota
	// LineRTS is Request To Send, driven by the DTE
	LineRTS
	// LineDSR is Data Set Ready, driven by the modem
	LineDSR
	// LineDCD is Data Carrier Detect, driven by the modem
	LineDCD
	// LineCTS is Clear To Send, driven by the modem
	LineCTS
	// LineRI is Ring Indicator, driven by the modem
	LineRI
)

var lineNames = []struct {
	line ControlLines
	name string
}{
	{LineDTR, "DTR"},
	{LineRTS, "RTS"},
	{LineDSR, "DSR"},
	{LineDCD, "DCD"},
	{LineCTS, "CTS"},
	{LineRI, "RI"},
}

// String lists the raised signals, for example "DSR|CTS".
func (c ControlLines) String() string {
	var names []string
	for _, l := range lineNames {
		if c&l.line != 0 {
			names = append(names, l.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Has reports whether all lines in l are raised.
func (c ControlLines) Has(l ControlLines) bool {
	return c&l == l
}

// FlowControl selects the serial flow control discipline (AT&K).
type FlowControl uint8

const (
	FlowNone    FlowControl = 0
	FlowRTSCTS  FlowControl = 1 << 0
	FlowXONXOFF FlowControl = 1 << 1
)

func (f FlowControl) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowRTSCTS:
		return "rts/cts"
	case FlowXONXOFF:
		return "xon/xoff"
	case FlowRTSCTS | FlowXONXOFF:
		return "rts/cts+xon/xoff"
	default:
		return "unknown"
	}
}

// DCE is the serial side of the modem: the port the DTE is plugged into.
//
// Read and Write carry the data stream. ControlLines returns the signals
// driven by the DTE (DTR and RTS); SetControlLines drives the modem side
// signals (DSR, DCD, CTS). Implementations that cannot sense or drive a
// signal simply ignore it.
type DCE interface {
	io.ReadWriteCloser
	ControlLines() (ControlLines, error)
	SetControlLines(lines ControlLines) error
	SetFlowControl(fc FlowControl) error
}

// LinePolicy decides how DSR and DCD follow the call state.
type LinePolicy struct {
	// DSRForced keeps DSR at its active level regardless of the call (AT&S0)
	DSRForced bool
	// DCDForced keeps DCD at its active level regardless of the call (AT&C0)
	DCDForced bool
	// InvertDSR swaps the active level of DSR
	InvertDSR bool
	// InvertDCD swaps the active level of DCD
	InvertDCD bool
}

// DefaultLinePolicy is DSR always on and DCD following the carrier.
var DefaultLinePolicy = LinePolicy{DSRForced: true}

func level(forced, invert, up bool) bool {
	if forced {
		return !invert
	}
	return up != invert
}

// Derive returns the modem side signals for a call that is up or down.
// CTS is always raised.
func (p LinePolicy) Derive(up bool) ControlLines {
	lines := LineCTS
	if level(p.DSRForced, p.InvertDSR, up) {
		lines |= LineDSR
	}
	if level(p.DCDForced, p.InvertDCD, up) {
		lines |= LineDCD
	}
	return lines
}
