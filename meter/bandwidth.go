package meter

import "time"

const bitsPerMegabit = 1000000.0

// Mbps converts a byte count moved over d into decimal megabits per second.
func Mbps(bytes uint64, d time.Duration) float64 {
	seconds := d.Seconds()
	if seconds <= 0 {
		return 0
	}
	return (float64(bytes) * 8.0) / (seconds * bitsPerMegabit)
}
