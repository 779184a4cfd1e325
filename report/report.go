package report

import (
	"io"
	"io/ioutil"

	"github.com/jet/bwtest/meter"
	"github.com/jet/bwtest/transfer"
)

// Observer is notified about session progress, e.g. metrics.Metrics.
type Observer interface {
	OnSessionStart()
	OnInterval(r meter.IntervalReport)
	OnSummary(s meter.Summary)
}

type Logger interface {
	Event(msg string, fs map[string]interface{})
}

// Reporter fans every report out to the console, the structured log and an
// optional Observer. Fields are attached to each log event.
type Reporter struct {
	Out      io.Writer
	Logger   Logger
	Observer Observer
	Fields   map[string]interface{}
}

func (r Reporter) console() meter.Console {
	if r.Out == nil {
		return meter.Console{W: ioutil.Discard}
	}
	return meter.Console{W: r.Out}
}

func (r Reporter) fields(fs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(r.Fields)+len(fs))
	for k, v := range r.Fields {
		out[k] = v
	}
	for k, v := range fs {
		out[k] = v
	}
	return out
}

func (r Reporter) Start() {
	if r.Observer != nil {
		r.Observer.OnSessionStart()
	}
	if r.Logger != nil {
		r.Logger.Event("session started", r.fields(nil))
	}
}

func (r Reporter) Interval(ir meter.IntervalReport) {
	r.console().Interval(ir)
	if r.Observer != nil {
		r.Observer.OnInterval(ir)
	}
	if r.Logger != nil {
		r.Logger.Event("interval", r.fields(map[string]interface{}{
			"role":     ir.Role,
			"interval": ir.Index,
			"start_s":  ir.Start.Seconds(),
			"end_s":    ir.End.Seconds(),
			"bytes":    ir.Bytes,
			"elapsed":  ir.Elapsed.String(),
			"mbps":     ir.Mbps,
		}))
	}
}

func (r Reporter) Summary(s meter.Summary) {
	r.console().Summary(s)
	if r.Observer != nil {
		r.Observer.OnSummary(s)
	}
	if r.Logger != nil {
		r.Logger.Event("session finished", r.fields(map[string]interface{}{
			"role":        s.Role,
			"total_bytes": s.TotalBytes,
			"avg_mbps":    s.AvgMbps,
			"intervals":   s.Intervals,
			"elapsed":     s.Elapsed.String(),
			"duration":    s.TestDuration.String(),
			"reason":      string(s.Reason),
		}))
	}
}

// Bind returns a copy of cfg whose hooks feed this Reporter.
func (r Reporter) Bind(cfg transfer.Config) transfer.Config {
	cfg.OnInterval = r.Interval
	cfg.OnSummary = r.Summary
	return cfg
}
