package nvt

// Telnet command bytes (RFC 854).
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	GA   byte = 249 // Go Ahead
	EL   byte = 248 // Erase Line
	EC   byte = 247 // Erase Character
	AYT  byte = 246 // Are You There
	AO   byte = 245 // Abort Output
	IP   byte = 244 // Interrupt Process
	BRK  byte = 243 // Break
	DM   byte = 242 // Data Mark
	NOP  byte = 241 // No Operation
	SE   byte = 240 // Subnegotiation End
	EOR  byte = 239 // End Of Record
)

// Telnet options this package knows by name.
const (
	OptBinary   byte = 0
	OptEcho     byte = 1
	OptSGA      byte = 3 // Suppress Go Ahead
	OptStatus   byte = 5
	OptTermType byte = 24
	OptNAWS     byte = 31 // Negotiate About Window Size
	OptSpeed    byte = 32
	OptLinemode byte = 34
	OptNewEnv   byte = 39
)

// VerbName returns the mnemonic of a command byte.
func VerbName(b byte) string {
	switch b {
	case IAC:
		return "IAC"
	case DONT:
		return "DONT"
	case DO:
		return "DO"
	case WONT:
		return "WONT"
	case WILL:
		return "WILL"
	case SB:
		return "SB"
	case GA:
		return "GA"
	case EL:
		return "EL"
	case EC:
		return "EC"
	case AYT:
		return "AYT"
	case AO:
		return "AO"
	case IP:
		return "IP"
	case BRK:
		return "BRK"
	case DM:
		return "DM"
	case NOP:
		return "NOP"
	case SE:
		return "SE"
	case EOR:
		return "EOR"
	default:
		return "?"
	}
}
