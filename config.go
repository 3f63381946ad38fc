package tcpmodem

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// StatusTransitionType defines a callback function that is called whenever the modem
// changes state. It runs on the bridge goroutine with the modem lock held.
type StatusTransitionType func(m *Modem, prevStatus Status, newStatus Status)

// OutgoingCallType defines a callback function for placing outgoing calls (ATD).
// It receives the dial string with modifiers removed and must return a connected
// stream or an error. The context carries the carrier wait deadline (S7).
type OutgoingCallType func(ctx context.Context, m *Modem, number string) (net.Conn, error)

// HookResult tells the AT engine what a command or line hook did with its input.
type HookResult int

const (
	// HookOK means the input was handled; the engine carries on with the line
	HookOK HookResult = iota
	// HookError ends the command line with a single ERROR
	HookError
	// HookSilent ends the command line without a result code
	HookSilent
	// HookSkip leaves the input to the built-in handling
	HookSkip
)

// Command is a single AT command as passed to a CommandHook.
type Command struct {
	// Extended is set for & commands
	Extended bool
	// Letter is the command letter in upper case
	Letter byte
	// Num is the numeric parameter, the register number for S
	Num int
	// Query is set for Sn?
	Query bool
	// Value is the text after "=" for S, or the dial string for D
	Value string
}

// CommandHookType defines a callback function for handling custom AT commands.
// It is called for every command before the built-in handling and runs on the
// bridge goroutine with the modem lock held.
type CommandHookType func(m *Modem, cmd Command) HookResult

// LineHookType defines a callback function for handling complete command lines.
// It receives the text after "AT" before it is parsed.
type LineHookType func(m *Modem, line string) HookResult

// Config contains the configuration parameters for creating a new modem instance.
// Only DCE is required, the other fields have reasonable defaults.
type Config struct {
	// Id names the modem in logs (default: "modem")
	Id string
	// DCE is the serial port the DTE is attached to (required)
	DCE DCE
	// Logger receives structured logs (default: slog.Default())
	Logger *slog.Logger
	// InitString is executed once at startup with responses suppressed, e.g. "ATS0=1"
	InitString string
	// DTESpeed is the serial speed reported in CONNECT when W2 is selected (default: 38400)
	DTESpeed int
	// DCESpeed is the line speed reported in CONNECT otherwise (default: DTESpeed)
	DCESpeed int
	// Lines sets how DSR and DCD follow the call (default: DefaultLinePolicy)
	Lines *LinePolicy
	// DisconnectDelay is the pause after NO CARRIER before the modem listens again
	DisconnectDelay time.Duration
	// ConnectFile is streamed to the peer when a call comes up
	ConnectFile string
	// NoAnswerFile is streamed to a caller that was never answered (default: "NO ANSWER\n")
	NoAnswerFile string
	// BusyFile is streamed to callers refused while a call is in progress (default: "BUSY\n")
	BusyFile string
	// Phonebook maps dial strings to host:port addresses
	Phonebook map[string]string
	// OutgoingCall places outgoing calls (default: TCP dial through the phonebook)
	OutgoingCall OutgoingCallType
	// CommandHook is an optional callback for handling custom AT commands
	CommandHook CommandHookType
	// LineHook is an optional callback for handling complete command lines
	LineHook LineHookType
	// StatusTransition is an optional callback for status change notifications
	StatusTransition StatusTransitionType
	// RingInterval is the time between RING results (default: 4s)
	RingInterval time.Duration
	// EscapeWindow is the longest gap allowed between escape characters (default: 1s)
	EscapeWindow time.Duration
	// GuardUnit scales register S12 into the escape guard time (default: 20ms)
	GuardUnit time.Duration
	// InactivityUnit scales register S30 into the inactivity timeout (default: 10s)
	InactivityUnit time.Duration
	// PollInterval is how often control lines are sampled (default: 50ms)
	PollInterval time.Duration
	// Trace logs every data buffer as a hex dump at debug level
	Trace bool
}

// Default values applied by NewModem.
const (
	DefaultSpeed          = 38400
	DefaultRingInterval   = 4 * time.Second
	DefaultEscapeWindow   = time.Second
	DefaultGuardUnit      = 20 * time.Millisecond
	DefaultInactivityUnit = 10 * time.Second
	DefaultPollInterval   = 50 * time.Millisecond
)

func (c *Config) validate() error {
	if c.DCE == nil {
		return ErrConfigRequired
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Id == "" {
		c.Id = "modem"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.DTESpeed == 0 {
		c.DTESpeed = DefaultSpeed
	}
	if c.DCESpeed == 0 {
		c.DCESpeed = c.DTESpeed
	}
	if c.Lines == nil {
		lines := DefaultLinePolicy
		c.Lines = &lines
	}
	if c.RingInterval == 0 {
		c.RingInterval = DefaultRingInterval
	}
	if c.EscapeWindow == 0 {
		c.EscapeWindow = DefaultEscapeWindow
	}
	if c.GuardUnit == 0 {
		c.GuardUnit = DefaultGuardUnit
	}
	if c.InactivityUnit == 0 {
		c.InactivityUnit = DefaultInactivityUnit
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}
