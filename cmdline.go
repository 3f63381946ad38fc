package tcpmodem

import "time"

// maxCmdLine bounds the command line buffer; extra characters are dropped.
const maxCmdLine = 255

// parseData handles a buffer read from the DTE. In command mode it feeds the
// line editor; in data mode it goes to the peer and through the escape
// detector.
func (m *Modem) parseData(p []byte) {
	m.stats.update(func(s *Metrics) {
		s.SerialRxBytes += len(p)
		s.LastSerialRxTime = time.Now()
	})
	if m.cmdMode {
		for _, c := range p {
			m.handleChar(c)
		}
		return
	}
	m.line.write(p)
	m.scanBreak(p)
}

// handleChar is the command mode line editor. Characters are echoed, an
// "AT" prefix starts a command line, S5 erases and S3 executes. "A/"
// repeats the previous command line.
func (m *Modem) handleChar(c byte) {
	if m.echo {
		m.writeSerial([]byte{c})
	}
	switch {
	case m.cmdStarted:
		switch c {
		case m.regs[RegBackspace]:
			if len(m.cmdLine) > 0 {
				m.cmdLine = m.cmdLine[:len(m.cmdLine)-1]
			} else if m.echo {
				// the backspace erased the echoed T
				m.writeSerial([]byte{'T'})
			}
		case m.regs[RegCR]:
			line := string(m.cmdLine)
			m.cmdLine = m.cmdLine[:0]
			m.cmdStarted = false
			m.lastCmd = line
			m.execute(line)
		default:
			if len(m.cmdLine) < maxCmdLine {
				m.cmdLine = append(m.cmdLine, c)
			}
		}
	case m.foundA:
		m.foundA = false
		switch c {
		case 't', 'T':
			m.cmdStarted = true
		case '/':
			m.execute(m.lastCmd)
		case 'a', 'A':
			m.foundA = true
		}
	case c == 'a' || c == 'A':
		m.foundA = true
	}
}
