package tcpmodem

import (
	"time"

	"github.com/jaracil/tcpmodem/at"
)

// The escape detector recognises guard time, three escape characters (S2),
// guard time. It runs in data mode and is driven by the bridge timer:
//
//	unarmed --S12 idle--> armed --S2--> counting (1..3) --S12 idle, 3 seen--> command mode
//
// Any other character, a fourth escape character or a gap longer than the
// escape window while counting drops back to unarmed.

func (m *Modem) clearBreak() {
	m.breakLen = 0
	m.preBreak = false
}

// scanBreak feeds data mode traffic from the DTE to the detector.
func (m *Modem) scanBreak(p []byte) {
	if !m.preBreak {
		return
	}
	esc := m.regs[RegEscapeChar]
	for _, c := range p {
		if c != esc {
			m.clearBreak()
			return
		}
		m.breakLen++
		if m.breakLen > 3 {
			m.clearBreak()
			return
		}
	}
}

// breakTimeout runs when the data mode timer expires.
func (m *Modem) breakTimeout() {
	switch {
	case m.preBreak && m.breakLen == 3:
		m.log.Info("escape sequence detected")
		m.cmdMode = true
		m.sendResponse(at.OK)
		m.clearBreak()
	case !m.preBreak:
		m.preBreak = true
	case m.breakLen > 0:
		m.log.Debug("escape character gap exceeded")
		m.clearBreak()
	case m.regs[RegInactivity] != 0:
		m.log.Info("DTE inactivity timeout")
		m.disconnect()
	}
}

// timerKind tells the bridge loop what an expiring timer means.
type timerKind int

const (
	timerNone timerKind = iota
	timerBreak
	timerRing
)

// nextTimeout selects the single timer armed for the next loop iteration.
func (m *Modem) nextTimeout() (time.Duration, timerKind) {
	if !m.cmdMode {
		switch {
		case !m.preBreak || m.breakLen == 3:
			return time.Duration(m.regs[RegGuardTime]) * m.cfg.GuardUnit, timerBreak
		case m.breakLen > 0:
			return m.cfg.EscapeWindow, timerBreak
		case m.regs[RegInactivity] != 0:
			return time.Duration(m.regs[RegInactivity]) * m.cfg.InactivityUnit, timerBreak
		}
		return 0, timerNone
	}
	if !m.connected && m.line.valid() {
		return m.cfg.RingInterval, timerRing
	}
	return 0, timerNone
}

// handleTimer dispatches an expired timer.
func (m *Modem) handleTimer(kind timerKind) {
	switch kind {
	case timerRing:
		m.ringTimeout()
	case timerBreak:
		m.breakTimeout()
	}
}
