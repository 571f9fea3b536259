package helpers

import (
	"fmt"
	"time"
)

// FormatCountdown renders a remaining duration as M:SS for expiry countdowns.
// Negative durations render as 0:00.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatExpiry renders a fixed expiry window (whole seconds) as M:SS.
func FormatExpiry(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatClock renders the wall-clock part of t as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDate renders a registration date as "January 2, 2006".
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
