package at

import "strconv"

// Result is a Hayes result code. The numeric value is the code sent to the
// DTE when numeric responses (ATV0) are selected.
type Result int

const (
	OK Result = iota
	Connect
	Ring
	NoCarrier
	Error
	Connect1200
	NoDialtone
	Busy
	NoAnswer
	Connect600
	Connect2400
	Connect4800
	Connect9600
	Connect7200
	Connect12000
	Connect14400
	Connect19200
	Connect38400
	Connect57600
	Connect115200
	Connect230400
)

var resultText = [...]string{
	OK:            "OK",
	Connect:       "CONNECT",
	Ring:          "RING",
	NoCarrier:     "NO CARRIER",
	Error:         "ERROR",
	Connect1200:   "CONNECT 1200",
	NoDialtone:    "NO DIALTONE",
	Busy:          "BUSY",
	NoAnswer:      "NO ANSWER",
	Connect600:    "CONNECT 0600",
	Connect2400:   "CONNECT 2400",
	Connect4800:   "CONNECT 4800",
	Connect9600:   "CONNECT 9600",
	Connect7200:   "CONNECT 7200",
	Connect12000:  "CONNECT 12000",
	Connect14400:  "CONNECT 14400",
	Connect19200:  "CONNECT 19200",
	Connect38400:  "CONNECT 38400",
	Connect57600:  "CONNECT 57600",
	Connect115200: "CONNECT 115200",
	Connect230400: "CONNECT 230400",
}

// NumResults is the size of the result vocabulary.
const NumResults = len(resultText)

// String returns the verbose (ATV1) form of the result.
func (r Result) String() string {
	if r < 0 || int(r) >= len(resultText) {
		return "UNKNOWN"
	}
	return resultText[r]
}

// Numeric returns the short (ATV0) form of the result.
func (r Result) Numeric() string {
	return strconv.Itoa(int(r))
}

// IsConnect reports whether r belongs to the CONNECT family.
func (r Result) IsConnect() bool {
	switch r {
	case Connect, Connect600, Connect1200, Connect2400, Connect4800, Connect7200,
		Connect9600, Connect12000, Connect14400, Connect19200, Connect38400,
		Connect57600, Connect115200, Connect230400:
		return true
	}
	return false
}

// ResultFromString converts the verbose form of a result back to its code.
// The match is exact and case sensitive; ok is false for unknown text.
func ResultFromString(s string) (r Result, ok bool) {
	for i, t := range resultText {
		if t == s {
			return Result(i), true
		}
	}
	return 0, false
}

// ConnectResult selects the CONNECT variant reported for a call at the given
// speed. A response level of 0 (ATX0) always yields a bare CONNECT, as does a
// speed without a dedicated code.
func ConnectResult(speed, level int) Result {
	if level == 0 {
		return Connect
	}
	switch speed {
	case 230400:
		return Connect230400
	case 115200:
		return Connect115200
	case 57600:
		return Connect57600
	case 38400:
		return Connect38400
	case 19200:
		return Connect19200
	case 14400:
		return Connect14400
	case 12000:
		return Connect12000
	case 9600:
		return Connect9600
	case 7200:
		return Connect7200
	case 4800:
		return Connect4800
	case 2400:
		return Connect2400
	case 1200:
		return Connect1200
	case 600:
		return Connect600
	}
	return Connect
}
