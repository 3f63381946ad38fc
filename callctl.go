package tcpmodem

import (
	"time"

	"github.com/jaracil/tcpmodem/at"
)

// unansweredRings is the number of RINGs after which a caller is sent away
// when auto answer is off.
const unansweredRings = 10

// setControlLines drives DSR, DCD and CTS from the current call state.
func (m *Modem) setControlLines() {
	lines := m.lines.Derive(m.connected)
	m.log.Info("control lines", "dsr", lines.Has(LineDSR), "dcd", lines.Has(LineDCD), "cts", lines.Has(LineCTS))
	if err := m.dce.SetControlLines(lines); err != nil {
		m.log.Warn("set control lines failed", "err", err)
	}
}

// connectResult picks the CONNECT variant for the current W and X settings.
func (m *Modem) connectResult() at.Result {
	speed := m.cfg.DCESpeed
	if m.connectResponse == 2 {
		speed = m.cfg.DTESpeed
	}
	return at.ConnectResult(speed, m.responseLevel)
}

func (m *Modem) callUp(incoming bool) {
	m.connected = true
	m.ringing = false
	m.setControlLines()
	m.sendResponse(m.connectResult())
	m.stats.update(func(s *Metrics) {
		s.NumConns++
		if incoming {
			s.NumInConns++
		} else {
			s.NumOutConns++
		}
		s.LastConnTime = time.Now()
	})
}

// goOffHook takes the line off hook and leaves command mode. A pending
// incoming call is answered.
func (m *Modem) goOffHook() {
	m.log.Info("taking modem off hook")
	m.offHook = true
	m.cmdMode = false
	m.line.offHook()
	if m.ringing {
		m.callUp(true)
	}
}

// connect dials the current number. A failed call still reports NO CARRIER.
func (m *Modem) connect() {
	m.goOffHook()
	if m.connected {
		return
	}
	if err := m.line.connect(m.dialNo); err != nil {
		m.log.Info("call failed", "number", m.dialNo, "err", err)
		m.connected = true
		m.disconnect()
		return
	}
	m.callUp(false)
}

// disconnect hangs up and returns to command mode. NO CARRIER is only sent
// when a call was actually up, so calling it twice is harmless.
func (m *Modem) disconnect() {
	m.log.Info("disconnecting modem")
	up := m.connected
	m.connected = false
	m.offHook = false
	m.cmdMode = true
	m.ringing = false
	m.clearBreak()
	m.setControlLines()
	m.line.disconnect()
	if up {
		m.sendResponse(at.NoCarrier)
		if m.cfg.DisconnectDelay > 0 {
			time.Sleep(m.cfg.DisconnectDelay)
		}
	}
	m.rings = 0
	m.regs[RegRingCount] = 0
	m.line.listen()
}

// sendRing reports one ring of a pending call and answers it when S0 says so
// or when the modem is already off hook.
func (m *Modem) sendRing() {
	m.ringing = true
	m.sendResponse(at.Ring)
	m.rings++
	m.regs[RegRingCount] = byte(min(m.rings, 255))
	m.log.Debug("ring", "count", m.rings)
	autoAnswer := int(m.regs[RegAutoAnswer])
	if !m.cmdMode || (autoAnswer != 0 && m.rings >= autoAnswer) {
		m.goOffHook()
	}
}

// ringTimeout runs when the ring timer expires on an unanswered call.
func (m *Modem) ringTimeout() {
	if m.regs[RegAutoAnswer] == 0 && m.rings >= unansweredRings {
		m.log.Info("call not answered", "rings", m.rings)
		m.line.sendPayload(m.cfg.NoAnswerFile, noAnswerText)
		m.disconnect()
		return
	}
	m.sendRing()
}
