package duration

import (
	"errors"
	"math"
	"testing"
)

func TestParse_Components(t *testing.T) {
	d, err := Parse("PT2H15M30.5S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Hours != 2 || d.Minutes != 15 || d.Seconds != 30.5 {
		t.Errorf("components: want 2h15m30.5s, got %dh%dm%gs", d.Hours, d.Minutes, d.Seconds)
	}
	if got := d.TotalSeconds(); got != 8130.5 {
		t.Errorf("TotalSeconds: want 8130.5, got %f", got)
	}
	if !d.Has(Hours) || !d.Has(Minutes) || !d.Has(Seconds) {
		t.Error("expected hours, minutes and seconds to be present")
	}
	if d.Has(Days) || d.Has(Years) {
		t.Error("days/years were not in the input and should not be present")
	}
}

func TestParse_RacetimeFinishTime(t *testing.T) {
	d, err := Parse("P0DT01H52M11.345000S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Has(Days) || d.Days != 0 {
		t.Errorf("expected explicit zero days, got has=%v days=%d", d.Has(Days), d.Days)
	}
	want := 1*3600 + 52*60 + 11.345
	if got := d.TotalSeconds(); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalSeconds: want %f, got %f", want, got)
	}
}

func TestTotalSeconds_CalendarApproximations(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"P1Y", 365.25 * 86400},
		{"P1M", 30.4375 * 86400},
		{"P2W", 14 * 86400},
		{"P1D", 86400},
		{"PT1M", 60},
		{"P", 0},
		{"PT", 0},
		{"  PT5S  ", 5},
	}
	for _, c := range cases {
		d, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got := d.TotalSeconds(); got != c.want {
			t.Errorf("Parse(%q).TotalSeconds(): want %f, got %f", c.in, c.want, got)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "1H2M", "PT1.5H", "PT-3S", "P1H", "PT1H2M3", "garbage"} {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("Parse(%q): expected error", in)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): want *ParseError, got %T", in, err)
			continue
		}
		if pe.Input != in {
			t.Errorf("ParseError.Input: want %q, got %q", in, pe.Input)
		}
	}
}

func TestLess_IsStrict(t *testing.T) {
	a := MustParse("PT1H2M3S")
	b := MustParse("PT1H2M2S")
	if !b.Less(a) {
		t.Error("expected PT1H2M2S < PT1H2M3S")
	}
	if a.Less(a) {
		t.Error("equal durations must not compare as less")
	}
	if !MustParse("PT3723S").Less(MustParse("PT1H2M3.1S")) {
		t.Error("expected comparison by total seconds across different component layouts")
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"PT1H", "PT60M", 0},
		{"PT59M59S", "PT1H", -1},
		{"P1D", "PT23H59M59.9S", 1},
	}
	for _, c := range cases {
		got, err := Compare(c.a, c.b)
		if err != nil {
			t.Fatalf("Compare(%q, %q): %v", c.a, c.b, err)
		}
		if got != c.want {
			t.Errorf("Compare(%q, %q): want %d, got %d", c.a, c.b, c.want, got)
		}
	}
	if _, err := Compare("PT1H", "nope"); err == nil {
		t.Error("expected error for malformed second argument")
	}
}

func TestString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"PT2H15M30.5S", "PT2H15M30.5S"},
		{"P0DT01H52M11.000S", "P0DT1H52M11S"},
		{"P1Y2M", "P1Y2M"},
		{"P", "PT0S"},
	}
	for _, c := range cases {
		if got := MustParse(c.in).String(); got != c.want {
			t.Errorf("String(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}

func TestClock(t *testing.T) {
	cases := []struct{ in, want string }{
		{"PT1H2M3S", "01:02:03.0"},
		{"PT2H15M30.54S", "02:15:30.5"},
		{"PT59M59.96S", "01:00:00.0"},
		{"P1DT1H", "25:00:00.0"},
		{"PT0S", "00:00:00.0"},
	}
	for _, c := range cases {
		if got := MustParse(c.in).Clock(); got != c.want {
			t.Errorf("Clock(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}
