package layout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pable/go-restream-stats/internal/duration"
)

// FormatPercent renders p with one decimal and a percent sign. NaN, which
// the aggregator produces when two runners never met, renders as "-".
func FormatPercent(p float64) string {
	if math.IsNaN(p) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", math.Round(p*10)/10)
}

// FormatDuration renders d as HH:MM:SS.s, or 00:00:00 when there is no time.
func FormatDuration(d *duration.Duration) string {
	if d == nil {
		return "00:00:00"
	}
	return d.Clock()
}

// FormatDate renders t as "March 9, 2024" in UTC, or "" when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

// FormatRank renders a qualifier seed as "#3".
func FormatRank(rank int) string {
	return fmt.Sprintf("#%d", rank)
}

// FormatPronouns lower-cases pronouns for on-screen display.
func FormatPronouns(p string) string {
	return strings.ToLower(p)
}

// Flag returns the leading flag of a "🇫🇷 France" style country cell, or the
// whole cell when it has a single token.
func Flag(country string) string {
	parts := strings.SplitN(country, " ", 2)
	if len(parts) >= 2 {
		return parts[0]
	}
	return country
}

// FlagRight moves the leading flag to the end ("France 🇫🇷") for the
// right-hand runner.
func FlagRight(country string) string {
	parts := strings.SplitN(country, " ", 2)
	if len(parts) < 2 {
		return country
	}
	return parts[1] + " " + parts[0]
}
