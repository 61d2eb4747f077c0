// Package duration parses and compares ISO-8601 style durations such as the
// finish times reported by racetime.gg ("P0DT1H52M11.345S").
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Approximate calendar lengths used when converting to seconds. Race finish
// times never span calendar units, so exact calendar arithmetic is not needed.
const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
	secondsPerMonth  = 30.4375 * secondsPerDay
	secondsPerYear   = 365.25 * secondsPerDay
)

// Component identifies one designator of a duration.
type Component uint8

const (
	Years Component = 1 << iota
	Months
	Weeks
	Days
	Hours
	Minutes
	Seconds
)

var pattern = regexp.MustCompile(`^\s*P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?\s*$`)

// ParseError is returned when a string is not a valid duration.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid duration %q", e.Input)
}

// Duration is an elapsed time split into optional components. Components
// that were absent from the parsed text are zero and not reported by Has.
type Duration struct {
	Years, Months, Weeks, Days int
	Hours, Minutes             int
	Seconds                    float64

	present Component
}

// Parse parses s in the form P[n]Y[n]M[n]W[n]D[T[n]H[n]M[n(.f)]S].
func Parse(s string) (Duration, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, &ParseError{Input: s}
	}

	var d Duration
	ints := []struct {
		group int
		comp  Component
		dst   *int
	}{
		{1, Years, &d.Years},
		{2, Months, &d.Months},
		{3, Weeks, &d.Weeks},
		{4, Days, &d.Days},
		{5, Hours, &d.Hours},
		{6, Minutes, &d.Minutes},
	}
	for _, f := range ints {
		if m[f.group] == "" {
			continue
		}
		n, err := strconv.Atoi(m[f.group])
		if err != nil {
			return Duration{}, &ParseError{Input: s}
		}
		*f.dst = n
		d.present |= f.comp
	}
	if m[7] != "" {
		sec, err := strconv.ParseFloat(m[7], 64)
		if err != nil {
			return Duration{}, &ParseError{Input: s}
		}
		d.Seconds = sec
		d.present |= Seconds
	}
	return d, nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// constants and tests.
func MustParse(s string) Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Has reports whether component c was present in the parsed text.
func (d Duration) Has(c Component) bool {
	return d.present&c != 0
}

// TotalSeconds converts d to seconds using fixed calendar approximations.
func (d Duration) TotalSeconds() float64 {
	return float64(d.Years)*secondsPerYear +
		float64(d.Months)*secondsPerMonth +
		float64(d.Weeks)*secondsPerWeek +
		float64(d.Days)*secondsPerDay +
		float64(d.Hours)*secondsPerHour +
		float64(d.Minutes)*secondsPerMinute +
		d.Seconds
}

// Less reports whether d is strictly shorter than o.
func (d Duration) Less(o Duration) bool {
	return d.TotalSeconds() < o.TotalSeconds()
}

// Compare parses a and b and returns -1, 0 or +1 by total seconds.
func Compare(a, b string) (int, error) {
	da, err := Parse(a)
	if err != nil {
		return 0, err
	}
	db, err := Parse(b)
	if err != nil {
		return 0, err
	}
	sa, sb := da.TotalSeconds(), db.TotalSeconds()
	switch {
	case sa < sb:
		return -1, nil
	case sa > sb:
		return 1, nil
	default:
		return 0, nil
	}
}

// String serialises d back to ISO-8601, emitting only present components.
func (d Duration) String() string {
	var b strings.Builder
	b.WriteByte('P')
	date := []struct {
		comp Component
		n    int
		unit byte
	}{
		{Years, d.Years, 'Y'},
		{Months, d.Months, 'M'},
		{Weeks, d.Weeks, 'W'},
		{Days, d.Days, 'D'},
	}
	for _, f := range date {
		if d.Has(f.comp) {
			b.WriteString(strconv.Itoa(f.n))
			b.WriteByte(f.unit)
		}
	}
	if d.Has(Hours) || d.Has(Minutes) || d.Has(Seconds) {
		b.WriteByte('T')
		if d.Has(Hours) {
			b.WriteString(strconv.Itoa(d.Hours))
			b.WriteByte('H')
		}
		if d.Has(Minutes) {
			b.WriteString(strconv.Itoa(d.Minutes))
			b.WriteByte('M')
		}
		if d.Has(Seconds) {
			b.WriteString(strconv.FormatFloat(d.Seconds, 'f', -1, 64))
			b.WriteByte('S')
		}
	}
	if b.Len() == 1 {
		return "PT0S"
	}
	return b.String()
}

// Clock formats d as HH:MM:SS.s, folding days and larger units into hours.
func (d Duration) Clock() string {
	tenths := int64(math.Round(d.TotalSeconds() * 10))
	h := tenths / (secondsPerHour * 10)
	tenths -= h * secondsPerHour * 10
	m := tenths / (secondsPerMinute * 10)
	tenths -= m * secondsPerMinute * 10
	return fmt.Sprintf("%02d:%02d:%02d.%d", h, m, tenths/10, tenths%10)
}
