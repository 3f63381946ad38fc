// Command tcpmodem emulates a Hayes compatible modem on a serial port or
// pseudo terminal and places and answers its calls over TCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaracil/tcpmodem"
	"github.com/jaracil/tcpmodem/internal/config"
	"github.com/jaracil/tcpmodem/internal/dce"
	"github.com/jaracil/tcpmodem/internal/listener"
)

// Build-time variables (set via ldflags)
var (
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	opts, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.ListPorts {
		if err := listPorts(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log := opts.NewLogger(os.Stderr)
	log.Info("tcpmodem starting", "build", BuildDate, "commit", GitCommit)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, log); err != nil {
		log.Error("tcpmodem failed", "err", err)
		cancel()
		os.Exit(1)
	}
	log.Info("tcpmodem stopped")
}

func listPorts() error {
	ports, err := dce.ListPorts()
	if err != nil {
		return err
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func run(ctx context.Context, opts *config.Options, log *slog.Logger) error {
	port, err := dce.Open(opts.Serial.Device, opts.Serial.Speed, opts.Serial.Link, log)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Info("serial port open", "device", port.Name())
	if opts.Serial.Device == dce.PtyDevice {
		fmt.Printf("tty path: %s\n", port.Name())
	}

	cfg := opts.ModemConfig()
	cfg.DCE = port
	cfg.Logger = log
	m, err := tcpmodem.NewModem(&cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() {
		errCh <- m.Run(ctx)
	}()
	select {
	case <-m.Ready():
	case err := <-errCh:
		return err
	}

	if opts.Listen.Addr != "" {
		lcfg := opts.ListenerConfig()
		lcfg.Logger = log
		l, err := listener.Listen(lcfg)
		if err != nil {
			cancel()
			<-errCh
			return err
		}
		go func() {
			errCh <- l.Serve(ctx, func(ctx context.Context, conn net.Conn) {
				answer(ctx, m, conn, log)
			})
		}()
	}

	err = <-errCh
	cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// answer hands conn to the modem. A busy modem has already refused and
// closed the call.
func answer(ctx context.Context, m *tcpmodem.Modem, conn net.Conn, log *slog.Logger) {
	err := m.IncomingCall(ctx, conn)
	switch {
	case err == nil:
	case errors.Is(err, tcpmodem.ErrModemBusy):
		log.Info("call refused, line busy", "remote", conn.RemoteAddr())
	default:
		log.Warn("incoming call dropped", "remote", conn.RemoteAddr(), "err", err)
		conn.Close()
	}
}
