package meter

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Console prints reports in the fixed line format both endpoints share.
type Console struct {
	W io.Writer
}

func (c Console) Interval(r IntervalReport) {
	fmt.Fprintln(c.W, FormatInterval(r))
}

func (c Console) Summary(s Summary) {
	fmt.Fprintln(c.W, FormatSummary(s))
}

func FormatInterval(r IntervalReport) string {
	return fmt.Sprintf("[%s] %2d–%2ds: %s %.2f Mbps",
		r.Role,
		int(r.Start/time.Second),
		int(r.End/time.Second),
		r.Direction.Verb(),
		r.Mbps)
}

func FormatSummary(s Summary) string {
	return fmt.Sprintf("[%s] Finished. Total %s: %d bytes (%.2f Mbps avg)",
		s.Role,
		strings.ToLower(s.Direction.Verb()),
		s.TotalBytes,
		s.AvgMbps)
}
