package transfer

import (
	"bytes"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/jet/bwtest/meter"
)

const (
	DefaultFillByte = 'A'
	KiB             = 1024
)

type Config struct {
	// BufferSize is the size of each write (sender) or the read limit (receiver)
	BufferSize int
	// FillByte is the constant payload of the send buffer
	FillByte byte
	Meter    meter.Config
	// Clock returns the current time, time.Now when nil
	Clock func() time.Time
	// Logger receives transfer errors
	Logger     Logger
	OnInterval meter.OnIntervalFn
	OnSummary  meter.OnSummaryFn
}

func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return errors.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	return c.Meter.Validate()
}

func (c Config) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (c Config) newSession() *meter.Session {
	return meter.NewSession(c.Meter, c.now(), c.OnInterval, c.OnSummary)
}

// Send writes a constant buffer to w until the session is done or a write fails.
// w is borrowed and left open.
func Send(w io.Writer, cfg Config) (meter.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return meter.Summary{}, err
	}
	cfg.Meter.Direction = meter.Send
	fill := cfg.FillByte
	if fill == 0 {
		fill = DefaultFillByte
	}
	buffer := bytes.Repeat([]byte{fill}, cfg.BufferSize)
	logger := logWrapper{Logger: cfg.Logger}

	session := cfg.newSession()
	for {
		n, err := w.Write(buffer)
		if n > 0 {
			if session.BytesTransferred(n, cfg.now()) == meter.Done {
				break
			}
		}
		if err != nil {
			err = errors.Wrap(err, "send error")
			logger.Error(err, "transfer aborted")
			session.TransferFailed(err)
			break
		}
	}
	return session.Finalize()
}

// Receive reads up to BufferSize bytes at a time from r until the session is
// done, the peer closes the stream, or a read fails. r is borrowed and left open.
func Receive(r io.Reader, cfg Config) (meter.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return meter.Summary{}, err
	}
	cfg.Meter.Direction = meter.Receive
	buffer := make([]byte, cfg.BufferSize)
	logger := logWrapper{Logger: cfg.Logger}

	session := cfg.newSession()
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if session.BytesTransferred(n, cfg.now()) == meter.Done {
				break
			}
		}
		if err == io.EOF || (n == 0 && err == nil) {
			logger.Logln("peer closed the connection after", session.Snapshot().TotalBytes, "bytes")
			session.PeerClosed()
			break
		}
		if err != nil {
			err = errors.Wrap(err, "receive error")
			logger.Error(err, "transfer aborted")
			session.TransferFailed(err)
			break
		}
	}
	return session.Finalize()
}
