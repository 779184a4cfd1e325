package client

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/jet/bwtest/meter"
	"github.com/jet/bwtest/report"
	"github.com/jet/bwtest/sockopt"
	"github.com/jet/bwtest/transfer"
)

const Role = "CLIENT"

const (
	DefaultServerAddress = "127.0.0.1:5555"
	DefaultBufferSize    = 64 * transfer.KiB
	DefaultTestDuration  = 32 * time.Second
	DefaultDialTimeout   = 10 * time.Second
)

type Logger interface {
	Logln(v ...interface{})
	Event(msg string, fs map[string]interface{})
	Error(err error, msg string)
}

type Config struct {
	Addr        string
	DialTimeout time.Duration
	// Transfer configures the send session; its Meter.Role defaults to CLIENT
	Transfer transfer.Config
	Hints    sockopt.Hints
	Out      io.Writer
	Logger   Logger
	Observer report.Observer
}

// Run connects to the server and streams filler data for the configured test
// duration. ctx bounds only the connection attempt.
func Run(ctx context.Context, cfg Config) (meter.Summary, error) {
	if cfg.Transfer.Meter.Role == "" {
		cfg.Transfer.Meter.Role = Role
	}
	if cfg.Out == nil {
		cfg.Out = ioutil.Discard
	}
	if err := cfg.Transfer.Validate(); err != nil {
		return meter.Summary{}, errors.Wrap(err, "invalid transfer configuration")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return meter.Summary{}, errors.Wrapf(err, "connection to %s failed", cfg.Addr)
	}
	defer conn.Close()
	fmt.Fprintln(cfg.Out, "Connected to server.")

	fields := map[string]interface{}{
		"remote": conn.RemoteAddr().String(),
		"local":  conn.LocalAddr().String(),
	}
	if err := sockopt.Apply(conn, cfg.Hints); err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error(err, "unable to apply socket buffer hints")
		}
	}
	if b, err := sockopt.Effective(conn); err == nil {
		fields["so_sndbuf"] = b.SendBuffer
		fields["so_rcvbuf"] = b.RecvBuffer
	}

	r := report.Reporter{
		Out:      cfg.Out,
		Logger:   cfg.Logger,
		Observer: cfg.Observer,
		Fields:   fields,
	}
	r.Start()
	tcfg := r.Bind(cfg.Transfer)
	tcfg.Logger = cfg.Logger
	return transfer.Send(conn, tcfg)
}
