package server

import (
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jet/bwtest/meter"
	"github.com/jet/bwtest/report"
	"github.com/jet/bwtest/sockopt"
	"github.com/jet/bwtest/transfer"
)

const Role = "SERVER"

const (
	DefaultListenAddress = ":5555"
	DefaultBufferSize    = 128 * transfer.KiB
	DefaultTestDuration  = 34 * time.Second
	// DefaultShutdownGrace bounds how long a running session may continue
	// after a shutdown request.
	DefaultShutdownGrace = 30 * time.Second
)

type Logger interface {
	Logln(v ...interface{})
	Logf(format string, v ...interface{})
	Event(msg string, fs map[string]interface{})
	Error(err error, msg string)
}

type Config struct {
	// Transfer configures each receive session; its Meter.Role defaults to SERVER
	Transfer transfer.Config
	Hints    sockopt.Hints
	// Out receives the console report lines
	Out      io.Writer
	Logger   Logger
	Observer report.Observer
}

// Server accepts one connection at a time and runs a receive session on it.
type Server struct {
	cfg Config

	lock     sync.Mutex
	listener net.Listener
	closed   bool
	sessions int
	active   net.Conn
	deadline time.Time
}

func New(cfg Config) *Server {
	if cfg.Transfer.Meter.Role == "" {
		cfg.Transfer.Meter.Role = Role
	}
	if cfg.Out == nil {
		cfg.Out = ioutil.Discard
	}
	return &Server{cfg: cfg}
}

// Serve runs the accept loop until Close is called. A failed accept is logged
// and the loop continues.
func (s *Server) Serve(l net.Listener) error {
	if err := s.cfg.Transfer.Validate(); err != nil {
		return errors.Wrap(err, "invalid transfer configuration")
	}
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return l.Close()
	}
	s.listener = l
	s.lock.Unlock()

	if addr, ok := l.Addr().(*net.TCPAddr); ok {
		fmt.Fprintf(s.cfg.Out, "Server listening on port %d...\n", addr.Port)
	} else {
		fmt.Fprintf(s.cfg.Out, "Server listening on %s...\n", l.Addr())
	}
	s.logf("listening on %s", l.Addr())

	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logError(errors.Wrap(err, "accept failed"), "accept failed")
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.Handle(conn)
		fmt.Fprint(s.cfg.Out, "Ready for next client...\n\n")
	}
}

// Handle runs one receive session on conn and closes it afterwards.
func (s *Server) Handle(conn net.Conn) (meter.Summary, error) {
	defer conn.Close()

	s.lock.Lock()
	s.sessions++
	id := s.sessions
	s.active = conn
	if !s.deadline.IsZero() {
		conn.SetReadDeadline(s.deadline)
	}
	s.lock.Unlock()
	defer func() {
		s.lock.Lock()
		s.active = nil
		s.lock.Unlock()
	}()

	remote := conn.RemoteAddr().String()
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	fmt.Fprintf(s.cfg.Out, "Client connected from %s\n", host)

	fields := map[string]interface{}{
		"remote":  remote,
		"session": id,
	}
	if err := sockopt.Apply(conn, s.cfg.Hints); err != nil {
		s.logError(err, "unable to apply socket buffer hints")
	}
	if b, err := sockopt.Effective(conn); err == nil {
		fields["so_sndbuf"] = b.SendBuffer
		fields["so_rcvbuf"] = b.RecvBuffer
	}

	r := report.Reporter{
		Out:      s.cfg.Out,
		Logger:   s.cfg.Logger,
		Observer: s.cfg.Observer,
		Fields:   fields,
	}
	r.Start()
	cfg := r.Bind(s.cfg.Transfer)
	cfg.Logger = s.cfg.Logger
	sum, err := transfer.Receive(conn, cfg)
	if err != nil {
		s.logError(err, "receive session failed")
	}
	return sum, err
}

// Close stops the accept loop and ends a running session immediately.
func (s *Server) Close() error {
	return s.Shutdown(0)
}

// Shutdown stops the accept loop and gives a running session at most grace to
// finish. A session still reading after that ends with a transfer error.
func (s *Server) Shutdown(grace time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	s.deadline = time.Now().Add(grace)
	if s.active != nil {
		if err := s.active.SetReadDeadline(s.deadline); err != nil {
			return errors.Wrap(err, "unable to bound the running session")
		}
	}
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) isClosed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func (s *Server) logf(format string, v ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Logf(format, v...)
	}
}

func (s *Server) logError(err error, msg string) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Error(err, msg)
	}
}
