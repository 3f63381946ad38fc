// Package config loads the tcpmodem command line, environment and INI file
// settings and turns them into the modem, serial port and listener
// configurations.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jaracil/tcpmodem"
	"github.com/jaracil/tcpmodem/internal/listener"
	"github.com/jessevdk/go-flags"
)

// Options are the tcpmodem settings. Every option can also be given in the
// INI file named by --config, using the long name as key; the command line
// and environment win over the file.
type Options struct {
	ConfigFile string `short:"c" long:"config" env:"TCPMODEM_CONFIG" no-ini:"true" description:"INI configuration file"`

	Serial struct {
		Device string `short:"d" long:"device" env:"TCPMODEM_DEVICE" default:"pty" description:"serial device, or pty for a pseudo terminal"`
		Link   string `long:"link" env:"TCPMODEM_LINK" description:"symlink created to the pseudo terminal"`
		Speed  int    `short:"s" long:"speed" env:"TCPMODEM_SPEED" default:"38400" description:"DTE serial speed"`
	} `group:"Serial Options"`

	Modem struct {
		Id                string            `long:"id" env:"TCPMODEM_ID" default:"modem" description:"modem name used in logs"`
		LineSpeed         int               `short:"S" long:"line-speed" env:"TCPMODEM_LINE_SPEED" description:"speed reported in CONNECT (default: serial speed)"`
		Init              string            `short:"i" long:"init" env:"TCPMODEM_INIT" description:"AT command line run at startup, e.g. ATS0=1"`
		ConnectFile       string            `long:"connect-file" env:"TCPMODEM_CONNECT_FILE" description:"file sent to the peer when a call comes up"`
		NoAnswerFile      string            `long:"no-answer-file" env:"TCPMODEM_NO_ANSWER_FILE" description:"file sent to callers that are not answered"`
		BusyFile          string            `long:"busy-file" env:"TCPMODEM_BUSY_FILE" description:"file sent to callers while the line is busy"`
		DSRFollowsCarrier bool              `long:"dsr-follows-carrier" env:"TCPMODEM_DSR_FOLLOWS_CARRIER" description:"raise DSR only during a call"`
		DCDAlwaysOn       bool              `long:"dcd-always-on" env:"TCPMODEM_DCD_ALWAYS_ON" description:"keep DCD raised outside calls"`
		InvertDSR         bool              `long:"invert-dsr" env:"TCPMODEM_INVERT_DSR" description:"invert the DSR level"`
		InvertDCD         bool              `long:"invert-dcd" env:"TCPMODEM_INVERT_DCD" description:"invert the DCD level"`
		DisconnectDelay   time.Duration     `long:"disconnect-delay" env:"TCPMODEM_DISCONNECT_DELAY" description:"pause after NO CARRIER"`
		PollInterval      time.Duration     `long:"poll-interval" env:"TCPMODEM_POLL_INTERVAL" default:"50ms" description:"control line sampling interval"`
		Phonebook         map[string]string `short:"n" long:"phonebook" env:"TCPMODEM_PHONEBOOK" env-delim:"," key-value-delimiter:"=" description:"dial string to host:port mapping, number=host:port"`
	} `group:"Modem Options"`

	Listen struct {
		Addr          string        `short:"p" long:"listen" env:"TCPMODEM_LISTEN" default:":6400" description:"address incoming calls arrive on, empty to disable"`
		ProxyProtocol bool          `long:"proxy-protocol" env:"TCPMODEM_PROXY_PROTOCOL" description:"expect a PROXY protocol header on incoming calls"`
		Keepalive     time.Duration `long:"keepalive" env:"TCPMODEM_KEEPALIVE" default:"30s" description:"TCP keepalive idle time, 0 for the system default"`
	} `group:"Listen Options"`

	Log struct {
		Level  string `short:"l" long:"log-level" env:"TCPMODEM_LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
		Format string `long:"log-format" env:"TCPMODEM_LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"log format"`
		Trace  bool   `short:"t" long:"trace" env:"TCPMODEM_TRACE" description:"hex dump all data at debug level"`
	} `group:"Log Options"`

	ListPorts bool `long:"list-ports" no-ini:"true" description:"list serial ports and exit"`
}

// Load parses args (without the program name). A help request is returned
// as a *flags.Error of type flags.ErrHelp carrying the usage text.
func Load(args []string) (*Options, error) {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" {
		ini := flags.NewIniParser(parser)
		ini.ParseAsDefaults = true
		if err := ini.ParseFile(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.ConfigFile, err)
		}
		if _, err := parser.ParseArgs(args); err != nil {
			return nil, err
		}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// IsHelp reports whether err is a help request from Load.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

func (o *Options) validate() error {
	if o.Serial.Speed <= 0 {
		return fmt.Errorf("invalid serial speed %d", o.Serial.Speed)
	}
	if o.Modem.LineSpeed < 0 {
		return fmt.Errorf("invalid line speed %d", o.Modem.LineSpeed)
	}
	if o.Modem.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %v", o.Modem.PollInterval)
	}
	for number, addr := range o.Modem.Phonebook {
		if number == "" || addr == "" {
			return fmt.Errorf("invalid phonebook entry %q=%q", number, addr)
		}
	}
	return nil
}

// ModemConfig returns the modem settings. The DCE and logger are supplied
// by the caller.
func (o *Options) ModemConfig() tcpmodem.Config {
	return tcpmodem.Config{
		Id:              o.Modem.Id,
		InitString:      o.Modem.Init,
		DTESpeed:        o.Serial.Speed,
		DCESpeed:        o.Modem.LineSpeed,
		DisconnectDelay: o.Modem.DisconnectDelay,
		ConnectFile:     o.Modem.ConnectFile,
		NoAnswerFile:    o.Modem.NoAnswerFile,
		BusyFile:        o.Modem.BusyFile,
		Phonebook:       o.Modem.Phonebook,
		PollInterval:    o.Modem.PollInterval,
		Trace:           o.Log.Trace,
		Lines: &tcpmodem.LinePolicy{
			DSRForced: !o.Modem.DSRFollowsCarrier,
			DCDForced: o.Modem.DCDAlwaysOn,
			InvertDSR: o.Modem.InvertDSR,
			InvertDCD: o.Modem.InvertDCD,
		},
	}
}

// ListenerConfig returns the listener settings.
func (o *Options) ListenerConfig() listener.Config {
	return listener.Config{
		Addr:          o.Listen.Addr,
		ProxyProtocol: o.Listen.ProxyProtocol,
		Keepalive:     listener.Keepalive{Idle: o.Listen.Keepalive},
	}
}

// NewLogger builds the logger selected by the log options.
func (o *Options) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(o.Log.Level)}
	if o.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel converts a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
