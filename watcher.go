package tcpmodem

import (
	"context"
	"time"
)

// controlWatcher samples the DTE control lines every PollInterval and tells
// the bridge about DTR edges. A message is only sent once the previous one
// has been taken, so no edge is lost.
func (m *Modem) controlWatcher(ctx context.Context) {
	log := m.log.With("component", "ctrl")
	prev, err := m.dce.ControlLines()
	if err != nil {
		log.Warn("cannot read control lines", "err", err)
	}
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur, err := m.dce.ControlLines()
		if err != nil {
			log.Debug("cannot read control lines", "err", err)
			continue
		}
		if (prev^cur)&LineDTR != 0 {
			msg := msgDTRUp
			if cur.Has(LineDTR) {
				log.Info("DTR has gone high")
			} else {
				log.Info("DTR has gone low")
				msg = msgDTRDown
			}
			select {
			case m.ctrlCh <- msg:
			case <-ctx.Done():
				return
			}
		}
		prev = cur
	}
}
