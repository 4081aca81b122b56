package helpers

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmhodges/clock"
)

// RelativeDateString renders t as "<relative> (<absolute>)", for example
// "3 days ago (2024-01-02T15:04:05Z)". The relative part is measured from
// clk's current time; the absolute part is RFC 3339 in UTC.
func RelativeDateString(clk clock.Clock, t time.Time) string {
	if clk == nil {
		clk = clock.Default()
	}
	return humanize.RelTime(t, clk.Now(), "ago", "from now") + " (" + t.UTC().Format(time.RFC3339) + ")"
}
