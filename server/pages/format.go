package pages

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with 1024-based units and at most two
// rounded decimals, e.g. "0 Bytes", "10 Bytes", "1.5 KB", "1.18 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}

	// round half away from zero like toFixed, without moving to the next unit
	v = math.Round(v*100) / 100

	return humanize.FtoaWithDigits(v, 2) + " " + sizeUnits[i]
}

// FormatDate renders an upload date as the day plus a relative hint.
func FormatDate(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}

	return t.Local().Format("2006-01-02") + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}
