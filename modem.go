// Package tcpmodem provides a Hayes-compatible modem emulator that bridges a
// serial port to TCP. Terminal software attached to the serial side sees an
// ordinary modem: it configures it with AT commands, dials with ATD, answers
// RING with ATA (or S0 auto answer), escapes to command mode with "+++" and
// hangs up with ATH or by dropping DTR. Calls are carried over TCP and telnet
// peers are recognised and handled transparently.
//
// A Modem is driven by Run, which owns all call state. Incoming connections
// are handed over with IncomingCall.
//
// Example usage:
//
//	m, err := tcpmodem.NewModem(&tcpmodem.Config{
//		DCE:       port,
//		Phonebook: map[string]string{"5551234": "bbs.example.com:23"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	go m.Run(ctx)
//	for {
//		conn, _ := ln.Accept()
//		m.IncomingCall(ctx, conn)
//	}
package tcpmodem

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jaracil/tcpmodem/at"
)

// NumRegisters is the number of S-registers.
const NumRegisters = 100

// S-registers with a meaning to the emulator.
const (
	RegAutoAnswer  = 0
	RegRingCount   = 1
	RegEscapeChar  = 2
	RegCR          = 3
	RegLF          = 4
	RegBackspace   = 5
	RegWaitCarrier = 7
	RegGuardTime   = 12
	RegInactivity  = 30
)

func factoryRegisters() [NumRegisters]byte {
	var regs [NumRegisters]byte
	regs[2] = '+'
	regs[3] = '\r'
	regs[4] = '\n'
	regs[5] = '\b'
	regs[6] = 2
	regs[7] = 50
	regs[8] = 2
	regs[9] = 6
	regs[10] = 14
	regs[11] = 95
	regs[12] = 50
	return regs
}

// Status is the call state of the modem as seen from outside.
type Status int

const (
	// StatusIdle is on hook with no call pending
	StatusIdle Status = iota
	// StatusRinging is an incoming call waiting to be answered
	StatusRinging
	// StatusOffHook is off hook without a carrier (dialing, or ATH1)
	StatusOffHook
	// StatusConnected is a call in data mode
	StatusConnected
	// StatusConnectedCmd is a call held while the modem is in command mode
	StatusConnectedCmd
)

// String returns a human-readable string representation of the modem status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRinging:
		return "Ringing"
	case StatusOffHook:
		return "OffHook"
	case StatusConnected:
		return "Connected"
	case StatusConnectedCmd:
		return "ConnectedCmd"
	default:
		return "Unknown"
	}
}

// Metrics contains runtime statistics for a modem instance.
// All byte counters are cumulative totals since the modem was created.
type Metrics struct {
	// Status is the current call status of the modem
	Status Status
	// SerialTxBytes is the total number of bytes written to the DTE
	SerialTxBytes int
	// SerialRxBytes is the total number of bytes read from the DTE
	SerialRxBytes int
	// LineTxBytes is the total number of data bytes sent to peers
	LineTxBytes int
	// LineRxBytes is the total number of bytes received from peers
	LineRxBytes int
	// NumConns is the total number of calls that reached CONNECT
	NumConns int
	// NumInConns is the number of answered incoming calls
	NumInConns int
	// NumOutConns is the number of completed outgoing calls
	NumOutConns int
	// NumBusy is the number of callers turned away with BUSY
	NumBusy int
	// LastSerialTxTime is the timestamp of the last write to the DTE
	LastSerialTxTime time.Time
	// LastSerialRxTime is the timestamp of the last read from the DTE
	LastSerialRxTime time.Time
	// LastAtCmdTime is the timestamp of the last AT command processed
	LastAtCmdTime time.Time
	// LastConnTime is the timestamp of the last connection establishment
	LastConnTime time.Time
}

// stats is shared with the IP reader, so it has its own lock.
type stats struct {
	mu sync.Mutex
	m  Metrics
}

func (s *stats) update(f func(*Metrics)) {
	s.mu.Lock()
	f(&s.m)
	s.mu.Unlock()
}

// Modem represents a virtual Hayes-compatible modem bridging a serial port
// with TCP/IP networks.
//
// Call state is owned by the goroutine running Run, which holds the modem
// lock while it handles each event. Exported accessors come in two flavours:
// plain ones require the caller to hold the lock (as status hooks do), Sync
// variants take it themselves.
type Modem struct {
	sync.Mutex
	id               string
	cfg              Config
	log              *slog.Logger
	dce              DCE
	line             *ipLine
	statusTransition StatusTransitionType
	outgoingCall     OutgoingCallType
	commandHook      CommandHookType
	lineHook         LineHookType

	st        Status
	cmdMode   bool
	offHook   bool
	connected bool
	ringing   bool
	rings     int

	regs [NumRegisters]byte
	crlf [2]byte

	dialNo       string
	dialType     byte
	lastDialNo   string
	lastDialType byte
	memoryDial   bool

	sendResponses   bool
	textResponses   bool
	echo            bool
	connectResponse int
	responseLevel   int
	lines           LinePolicy
	flow            FlowControl

	preBreak bool
	breakLen int

	foundA     bool
	cmdStarted bool
	cmdLine    []byte
	lastCmd    string

	lastConnected bool
	lastOnline    bool

	running   bool
	ctx       context.Context
	ready     chan struct{}
	readyOnce sync.Once

	outMu         sync.Mutex
	allowTransmit bool

	serialCh chan []byte
	ctrlCh   chan message
	ipCh     chan ipEvent
	acceptCh chan acceptRequest
	notifyCh chan ipGate

	stats stats
}

// NewModem creates a new modem instance with the specified configuration.
// The modem starts idle in command mode; call Run to bring it to life.
//
// Returns ErrConfigRequired if config is nil or DCE is missing.
func NewModem(config *Config) (*Modem, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	cfg := *config
	cfg.setDefaults()

	m := &Modem{
		id:               cfg.Id,
		cfg:              cfg,
		log:              cfg.Logger.With("modem", cfg.Id),
		dce:              cfg.DCE,
		statusTransition: cfg.StatusTransition,
		outgoingCall:     cfg.OutgoingCall,
		commandHook:      cfg.CommandHook,
		lineHook:         cfg.LineHook,
		st:               StatusIdle,
		cmdMode:          true,
		allowTransmit:    true,
		ctx:              context.Background(),
		ready:            make(chan struct{}),
		serialCh:         make(chan []byte, 1),
		ctrlCh:           make(chan message, 1),
		ipCh:             make(chan ipEvent, 1),
		acceptCh:         make(chan acceptRequest, 1),
		notifyCh:         make(chan ipGate, 1),
	}
	if m.outgoingCall == nil {
		m.outgoingCall = dialPhonebook
	}
	if cfg.Trace {
		m.dce = traceDCE(cfg.DCE, m.log.With("component", "serial"))
	}
	m.line = newIPLine(m)
	m.resetProfile()
	return m, nil
}

// resetProfile restores the factory settings (AT&F).
func (m *Modem) resetProfile() {
	m.regs = factoryRegisters()
	m.crlf = [2]byte{m.regs[RegCR], m.regs[RegLF]}
	m.sendResponses = true
	m.textResponses = true
	m.echo = true
	m.connectResponse = 0
	m.responseLevel = 4
	m.lines = *m.cfg.Lines
}

// Ready is closed once Run has started and IncomingCall is accepted. It
// stays closed after Run returns.
func (m *Modem) Ready() <-chan struct{} {
	return m.ready
}

// Id returns the identifier of the modem instance.
func (m *Modem) Id() string {
	return m.id
}

func (m *Modem) checkLock() {
	if m.TryLock() {
		panic("Modem lock not held")
	}
}

func (m *Modem) status() Status {
	return m.st
}

// Status returns the current call status of the modem.
// The modem lock must be held before calling this method.
// Use StatusSync for automatic lock management.
func (m *Modem) Status() Status {
	m.checkLock()
	return m.status()
}

// StatusSync returns the current call status with automatic lock management.
func (m *Modem) StatusSync() Status {
	m.Lock()
	defer m.Unlock()
	return m.status()
}

// Register returns the value of S-register n, or 0 if n is out of range.
// The modem lock must be held before calling this method.
func (m *Modem) Register(n int) byte {
	m.checkLock()
	return m.register(n)
}

// RegisterSync returns the value of S-register n with automatic lock management.
func (m *Modem) RegisterSync(n int) byte {
	m.Lock()
	defer m.Unlock()
	return m.register(n)
}

func (m *Modem) register(n int) byte {
	if n < 0 || n >= NumRegisters {
		return 0
	}
	return m.regs[n]
}

func (m *Modem) metrics() *Metrics {
	m.stats.mu.Lock()
	defer m.stats.mu.Unlock()
	copy := m.stats.m
	copy.Status = m.status()
	return &copy
}

// Metrics returns a copy of the current modem metrics.
// The modem lock must be held before calling this method.
// Use MetricsSync for automatic lock management.
func (m *Modem) Metrics() *Metrics {
	m.checkLock()
	return m.metrics()
}

// MetricsSync returns a copy of the current modem metrics with automatic lock management.
func (m *Modem) MetricsSync() *Metrics {
	m.Lock()
	defer m.Unlock()
	return m.metrics()
}

func (m *Modem) deriveStatus() Status {
	switch {
	case m.connected && m.cmdMode:
		return StatusConnectedCmd
	case m.connected:
		return StatusConnected
	case m.ringing:
		return StatusRinging
	case m.offHook:
		return StatusOffHook
	default:
		return StatusIdle
	}
}

// updateStatus recomputes the status and reports any change.
func (m *Modem) updateStatus() {
	prev := m.st
	next := m.deriveStatus()
	if prev == next {
		return
	}
	m.st = next
	m.log.Debug("status", "from", prev, "to", next)
	if m.statusTransition != nil {
		m.statusTransition(m, prev, next)
	}
}

// writeSerial sends bytes to the DTE. It is used by both the bridge loop and
// the IP reader, so writes are serialized on their own lock.
func (m *Modem) writeSerial(p []byte) (int, error) {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	if !m.allowTransmit || len(p) == 0 {
		return len(p), nil
	}
	n, err := m.dce.Write(p)
	m.stats.update(func(s *Metrics) {
		s.SerialTxBytes += n
		s.LastSerialTxTime = time.Now()
	})
	if err != nil {
		m.log.Warn("serial write failed", "err", err)
	}
	return n, err
}

func (m *Modem) setTransmit(allow bool) {
	m.outMu.Lock()
	m.allowTransmit = allow
	m.outMu.Unlock()
}

// serialWriter adapts writeSerial to io.Writer for the NVT translator.
type serialWriter struct {
	m *Modem
}

func (w serialWriter) Write(p []byte) (int, error) {
	return w.m.writeSerial(p)
}

// sendResponse emits a result code framed by the S3/S4 line ending.
func (m *Modem) sendResponse(r at.Result) {
	m.log.Debug("response", "result", r.String())
	if !m.sendResponses {
		return
	}
	body := r.String()
	if !m.textResponses {
		body = r.Numeric()
	}
	buf := make([]byte, 0, len(body)+4)
	buf = append(buf, m.crlf[:]...)
	buf = append(buf, body...)
	buf = append(buf, m.crlf[:]...)
	m.writeSerial(buf)
}
