package tcpmodem

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func newMockModem(t *testing.T, dce DCE) *Modem {
	t.Helper()
	m, err := NewModem(&Config{
		DCE:          dce,
		Logger:       testLogger(),
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewModem() error = %v", err)
	}
	return m
}

func TestControlWatcher_DTREdges(t *testing.T) {
	ctrl := gomock.NewController(t)
	dce := NewMockDCE(ctrl)
	gomock.InOrder(
		dce.EXPECT().ControlLines().Return(LineDTR|LineRTS, nil),
		dce.EXPECT().ControlLines().Return(LineRTS, nil),
		dce.EXPECT().ControlLines().Return(LineRTS, errors.New("transient")),
		dce.EXPECT().ControlLines().Return(LineDTR, nil),
	)
	dce.EXPECT().ControlLines().Return(LineDTR, nil).AnyTimes()

	m := newMockModem(t, dce)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.controlWatcher(ctx)
		close(done)
	}()

	for _, want := range []message{msgDTRDown, msgDTRUp} {
		select {
		case got := <-m.ctrlCh:
			if got != want {
				t.Errorf("watcher sent %v, want %v", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %v message", want)
		}
	}

	select {
	case got := <-m.ctrlCh:
		t.Errorf("unexpected message %v with DTR steady", got)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestModem_SetControlLinesFollowsCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	dce := NewMockDCE(ctrl)
	m := newMockModem(t, dce)

	gomock.InOrder(
		dce.EXPECT().SetControlLines(LineCTS|LineDSR).Return(nil),
		dce.EXPECT().SetControlLines(LineCTS|LineDSR|LineDCD).Return(nil),
		dce.EXPECT().SetControlLines(LineCTS|LineDSR).Return(errors.New("ioctl failed")),
	)

	m.Lock()
	defer m.Unlock()
	m.setControlLines()
	m.connected = true
	m.setControlLines()
	m.connected = false
	m.setControlLines()
}

func TestModem_FlowControlErrorStillOK(t *testing.T) {
	ctrl := gomock.NewController(t)
	dce := NewMockDCE(ctrl)
	m := newMockModem(t, dce)

	dce.EXPECT().SetFlowControl(FlowRTSCTS).Return(errors.New("not supported"))
	dce.EXPECT().Write([]byte("\r\nOK\r\n")).Return(6, nil)

	m.Lock()
	defer m.Unlock()
	m.execute("&K3")
	if m.flow != FlowRTSCTS {
		t.Errorf("flow = %v", m.flow)
	}
}
