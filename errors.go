package tcpmodem

import "errors"

var (
	// ErrConfigRequired is returned when a required configuration parameter is missing
	ErrConfigRequired = errors.New("config required")
	// ErrModemBusy is returned when Run is called on a modem that is already
	// running, and by IncomingCall when the caller was refused because a call
	// is in progress
	ErrModemBusy = errors.New("modem busy")
	// ErrNoCarrier is returned when no network connection can be established
	ErrNoCarrier = errors.New("no carrier")
	// ErrClosed is returned when talking to a modem whose Run loop has stopped
	ErrClosed = errors.New("modem closed")
	// ErrInvalidNumber is returned when a dial string cannot be turned into an address
	ErrInvalidNumber = errors.New("invalid number")
)

// errors reported by command handlers; each one ends the command line with ERROR
var (
	errBadArgument = errors.New("argument out of range")
	errBadRegister = errors.New("no such register")
)
