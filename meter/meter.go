package meter

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

const DefaultInterval = 2 * time.Second

type Direction int

const (
	Send Direction = iota
	Receive
)

// Verb is the capitalized verb used in interval lines.
func (d Direction) Verb() string {
	if d == Send {
		return "Sent"
	}
	return "Received"
}

func (d Direction) String() string {
	if d == Send {
		return "send"
	}
	return "receive"
}

type State int

const (
	Running State = iota
	Done
)

type EndReason string

const (
	DurationElapsed EndReason = "duration_elapsed"
	PeerClosed      EndReason = "peer_closed"
	TransferError   EndReason = "transfer_error"
)

type Config struct {
	// Role tags every report, e.g. CLIENT or SERVER
	Role      string
	Direction Direction
	// IntervalLength is the reporting window
	IntervalLength time.Duration
	// TestDuration bounds the session and is the divisor of the average
	TestDuration time.Duration
}

func (c Config) Validate() error {
	if c.IntervalLength <= 0 {
		return errors.Errorf("interval length must be positive, got %v", c.IntervalLength)
	}
	if c.TestDuration <= 0 {
		return errors.Errorf("test duration must be positive, got %v", c.TestDuration)
	}
	return nil
}

type IntervalReport struct {
	Role      string
	Direction Direction
	Index     int
	// Start and End are the nominal window bounds relative to session start
	Start   time.Duration
	End     time.Duration
	Bytes   uint64
	Elapsed time.Duration
	Mbps    float64
}

type Summary struct {
	Role         string
	Direction    Direction
	TotalBytes   uint64
	Intervals    int
	TestDuration time.Duration
	Elapsed      time.Duration
	AvgMbps      float64
	Reason       EndReason
	Err          error
}

type OnIntervalFn func(r IntervalReport)
type OnSummaryFn func(s Summary)

// Session accounts the bytes moved over one connection. It is not safe for
// concurrent use by multiple transfer loops; the lock only guards Snapshot.
type Session struct {
	cfg        Config
	onInterval OnIntervalFn
	onSummary  OnSummaryFn

	lock          sync.Mutex
	state         State
	totalBytes    uint64
	intervalBytes uint64
	sessionStart  time.Time
	intervalStart time.Time
	lastEvent     time.Time
	intervalIndex int
	reason        EndReason
	err           error
	summary       *Summary
}

func NewSession(cfg Config, start time.Time, onInterval OnIntervalFn, onSummary OnSummaryFn) *Session {
	return &Session{
		cfg:           cfg,
		onInterval:    onInterval,
		onSummary:     onSummary,
		state:         Running,
		sessionStart:  start,
		intervalStart: start,
		lastEvent:     start,
	}
}

func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// BytesTransferred records n bytes moved at now and reports the resulting state.
// Events after the session is done are ignored.
func (s *Session) BytesTransferred(n int, now time.Time) State {
	s.lock.Lock()
	if s.state == Done || n <= 0 {
		st := s.state
		s.lock.Unlock()
		return st
	}
	s.totalBytes += uint64(n)
	s.intervalBytes += uint64(n)
	s.lastEvent = now

	elapsedInterval := now.Sub(s.intervalStart)
	elapsedTotal := now.Sub(s.sessionStart)

	var report *IntervalReport
	if elapsedInterval >= s.cfg.IntervalLength {
		report = &IntervalReport{
			Role:      s.cfg.Role,
			Direction: s.cfg.Direction,
			Index:     s.intervalIndex,
			Start:     time.Duration(s.intervalIndex) * s.cfg.IntervalLength,
			End:       time.Duration(s.intervalIndex+1) * s.cfg.IntervalLength,
			Bytes:     s.intervalBytes,
			Elapsed:   elapsedInterval,
			Mbps:      Mbps(s.intervalBytes, elapsedInterval),
		}
		s.intervalBytes = 0
		s.intervalStart = now
		s.intervalIndex++
	}
	if elapsedTotal >= s.cfg.TestDuration {
		s.state = Done
		s.reason = DurationElapsed
	}
	st := s.state
	s.lock.Unlock()

	if report != nil && s.onInterval != nil {
		s.onInterval(*report)
	}
	return st
}

// PeerClosed ends the session after an orderly close by the remote side.
func (s *Session) PeerClosed() {
	s.end(PeerClosed, nil)
}

// TransferFailed ends the session after an I/O error. The partial window is dropped.
func (s *Session) TransferFailed(err error) {
	s.end(TransferError, err)
}

func (s *Session) end(reason EndReason, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state == Done {
		return
	}
	s.state = Done
	s.reason = reason
	s.err = err
}

// Finalize emits the summary once the session is done. Calling it again returns
// the same summary without emitting it a second time.
func (s *Session) Finalize() (Summary, error) {
	s.lock.Lock()
	if s.state != Done {
		s.lock.Unlock()
		return Summary{}, errors.New("session is still running")
	}
	if s.summary != nil {
		sum := *s.summary
		s.lock.Unlock()
		return sum, nil
	}
	sum := Summary{
		Role:         s.cfg.Role,
		Direction:    s.cfg.Direction,
		TotalBytes:   s.totalBytes,
		Intervals:    s.intervalIndex,
		TestDuration: s.cfg.TestDuration,
		Elapsed:      s.lastEvent.Sub(s.sessionStart),
		AvgMbps:      Mbps(s.totalBytes, s.cfg.TestDuration),
		Reason:       s.reason,
		Err:          s.err,
	}
	s.summary = &sum
	s.lock.Unlock()

	if s.onSummary != nil {
		s.onSummary(sum)
	}
	return sum, nil
}

type Snapshot struct {
	TotalBytes    uint64
	IntervalBytes uint64
	IntervalIndex int
	State         State
}

func (s *Session) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return Snapshot{
		TotalBytes:    s.totalBytes,
		IntervalBytes: s.intervalBytes,
		IntervalIndex: s.intervalIndex,
		State:         s.state,
	}
}
