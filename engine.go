package tcpmodem

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaracil/tcpmodem/at"
)

// Identification strings for ATI.
const (
	productName = "TCPMODEM"
	productInfo = "Hayes compatible TCP modem"
)

// execute runs one command line (the text after "AT"). Commands act in order
// until the line ends, a command ends it (A, O, D) or one fails. A failure
// stops all further side effects and sends a single ERROR.
func (m *Modem) execute(line string) {
	m.stats.update(func(s *Metrics) { s.LastAtCmdTime = time.Now() })
	m.log.Debug("evaluating", "cmd", "AT"+line)

	if m.lineHook != nil {
		switch m.lineHook(m, line) {
		case HookOK:
			m.sendResponse(at.OK)
			return
		case HookError:
			m.sendResponse(at.Error)
			return
		case HookSilent:
			return
		}
	}

	cursor := 0
	for {
		tok, next := at.Next(line, cursor)
		cursor = next
		switch tok.Kind {
		case at.KindError:
			m.log.Debug("bad command", "cmd", "AT"+line, "pos", cursor)
			m.sendResponse(at.Error)
			return
		case at.KindEnd:
			if m.cmdMode {
				m.sendResponse(at.OK)
			}
			return
		case at.KindNone:
			return
		}

		if m.commandHook != nil {
			cmd := Command{
				Extended: tok.Kind == at.KindExtended,
				Letter:   tok.Cmd,
				Num:      tok.Num,
				Query:    tok.Query,
				Value:    tok.Arg(line),
			}
			switch m.commandHook(m, cmd) {
			case HookOK:
				continue
			case HookError:
				m.log.Debug("command refused by hook", "cmd", string(tok.Cmd), "num", tok.Num)
				m.sendResponse(at.Error)
				return
			case HookSilent:
				return
			}
		}

		var (
			done bool
			err  error
		)
		if tok.Kind == at.KindExtended {
			err = m.extendedCommand(tok)
		} else {
			done, err = m.basicCommand(tok, line)
		}
		if err != nil {
			m.log.Debug("command failed", "cmd", string(tok.Cmd), "num", tok.Num, "err", err)
			m.sendResponse(at.Error)
			return
		}
		if done {
			return
		}
	}
}

// runInit executes the configured init string without talking to the DTE.
func (m *Modem) runInit() {
	line := strings.TrimSpace(m.cfg.InitString)
	if len(line) >= 2 && strings.EqualFold(line[:2], "AT") {
		line = line[2:]
	}
	if line == "" {
		return
	}
	m.setTransmit(false)
	m.execute(line)
	m.setTransmit(true)
}

// binary accepts 0 and 1.
func binary(n int) (bool, error) {
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errBadArgument
}

func inRange(n, lo, hi int) error {
	if n < lo || n > hi {
		return errBadArgument
	}
	return nil
}

// basicCommand handles a single letter command. done ends the line without
// a final OK.
func (m *Modem) basicCommand(tok at.Token, line string) (done bool, err error) {
	switch tok.Cmd {
	case 'A', 'O':
		m.goOffHook()
		return true, nil
	case 'D':
		m.dial(tok, line)
		return true, nil
	case 'E':
		var on bool
		if on, err = binary(tok.Num); err == nil {
			m.echo = on
		}
	case 'H':
		switch tok.Num {
		case 0:
			m.disconnect()
		case 1:
			m.goOffHook()
		default:
			err = errBadArgument
		}
	case 'I':
		err = m.identify(tok.Num)
	case 'Q':
		switch tok.Num {
		case 0, 2:
			m.sendResponses = true
		case 1:
			m.sendResponses = false
		default:
			err = errBadArgument
		}
	case 'S':
		err = m.registerCommand(tok, line)
	case 'V':
		var on bool
		if on, err = binary(tok.Num); err == nil {
			m.textResponses = on
		}
	case 'W':
		if err = inRange(tok.Num, 0, 2); err == nil {
			m.connectResponse = tok.Num
		}
	case 'X':
		if err = inRange(tok.Num, 0, 4); err == nil {
			m.responseLevel = tok.Num
		}
	case 'Z':
		if err = inRange(tok.Num, 0, 1); err == nil {
			if m.offHook {
				m.disconnect()
			}
			m.resetProfile()
			m.setControlLines()
		}
	case 'B', 'N', 'Y':
		err = inRange(tok.Num, 0, 1)
	case 'L', 'M':
		err = inRange(tok.Num, 0, 3)
	}
	return false, err
}

// extendedCommand handles the & commands.
func (m *Modem) extendedCommand(tok at.Token) error {
	switch tok.Cmd {
	case 'C':
		follows, err := binary(tok.Num)
		if err != nil {
			return err
		}
		m.lines.DCDForced = !follows
		m.setControlLines()
	case 'S':
		follows, err := binary(tok.Num)
		if err != nil {
			return err
		}
		m.lines.DSRForced = !follows
		m.setControlLines()
	case 'F':
		if tok.Num != 0 {
			return errBadArgument
		}
		m.resetProfile()
		m.setControlLines()
	case 'K':
		var fc FlowControl
		switch tok.Num {
		case 0:
			fc = FlowNone
		case 3:
			fc = FlowRTSCTS
		case 4, 5:
			fc = FlowXONXOFF
		case 6:
			fc = FlowXONXOFF | FlowRTSCTS
		default:
			return errBadArgument
		}
		m.flow = fc
		m.log.Info("flow control", "mode", fc)
		if err := m.dce.SetFlowControl(fc); err != nil {
			m.log.Warn("set flow control failed", "mode", fc, "err", err)
		}
	}
	return nil
}

// registerCommand handles Sn=v and Sn?.
func (m *Modem) registerCommand(tok at.Token, line string) error {
	if tok.Num >= NumRegisters {
		return errBadRegister
	}
	if tok.Query {
		m.writeSerial(append(m.crlf[:], fmt.Sprintf("%03d", m.regs[tok.Num])...))
		return nil
	}
	v := 0
	if arg := tok.Arg(line); arg != "" {
		var err error
		if v, err = strconv.Atoi(arg); err != nil {
			return errBadArgument
		}
	}
	if v > 255 {
		return errBadArgument
	}
	m.regs[tok.Num] = byte(v)
	switch tok.Num {
	case RegCR:
		m.crlf[0] = byte(v)
	case RegLF:
		m.crlf[1] = byte(v)
	}
	return nil
}

// identify handles ATIn.
func (m *Modem) identify(n int) error {
	var info string
	switch n {
	case 0:
		info = productName
	case 1:
		info = productInfo
	case 2:
		info = fmt.Sprintf("DTE %d DCE %d", m.cfg.DTESpeed, m.cfg.DCESpeed)
	default:
		return errBadArgument
	}
	m.writeSerial(append(m.crlf[:], info...))
	return nil
}

// dial handles ATD. The dial string runs to the end of the line. A bare ATDL
// echoes the last number dialed and goes off hook without dialing it;
// ATDL followed by a number dials that number.
func (m *Modem) dial(tok at.Token, line string) {
	number := tok.Arg(line)
	switch {
	case number != "":
		m.dialNo = number
		m.dialType = byte(tok.Num)
		m.lastDialNo = number
		m.lastDialType = byte(tok.Num)
		m.memoryDial = false
	case tok.Num == at.DialLast:
		m.dialNo = ""
		m.dialType = m.lastDialType
		m.memoryDial = true
		m.writeSerial(append(m.crlf[:], m.lastDialNo...))
	default:
		m.dialNo = ""
		m.dialType = 0
		m.lastDialNo = ""
		m.lastDialType = 0
	}
	if m.dialNo != "" {
		m.connect()
	} else {
		m.goOffHook()
	}
}
