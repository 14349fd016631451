package cadence

import (
	"errors"
	"math"
	"testing"

	"github.com/theirongolddev/cadence/internal/model"
)

func TestConvert_MonthlyToAnnually(t *testing.T) {
	got, err := Convert(1000, model.Monthly, model.Annually)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if got != 12000 {
		t.Fatalf("Convert(1000, monthly, annually) = %.2f, want 12000", got)
	}
}

func TestConvert_Identity(t *testing.T) {
	amounts := []float64{0, 0.1, 1.005, 333.33, 1e9}
	for _, f := range Frequencies() {
		for _, a := range amounts {
			got, err := Convert(a, f, f)
			if err != nil {
				t.Fatalf("Convert(%v, %s, %s) error: %v", a, f, f, err)
			}
			if got != a {
				t.Fatalf("Convert(%v, %s, %s) = %v, want exact identity", a, f, f, got)
			}
		}
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	amounts := []float64{0, 1, 17.35, 500, 123456.78}
	for _, from := range Frequencies() {
		for _, to := range Frequencies() {
			for _, a := range amounts {
				there, err := Convert(a, from, to)
				if err != nil {
					t.Fatal(err)
				}
				back, err := Convert(there, to, from)
				if err != nil {
					t.Fatal(err)
				}
				if math.Abs(back-a) > 1e-9*math.Max(1, a) {
					t.Fatalf("round trip %s->%s->%s of %v = %v", from, to, from, a, back)
				}
			}
		}
	}
}

func TestConvert_QuarterlyToMonthly(t *testing.T) {
	got := MustConvert(500, model.Quarterly, model.Monthly)
	if math.Abs(got-166.6666666667) > 1e-6 {
		t.Fatalf("Convert(500, quarterly, monthly) = %v, want ~166.67", got)
	}
}

func TestConvert_UnknownFrequency(t *testing.T) {
	_, err := Convert(10, "daily", model.Monthly)
	if err == nil {
		t.Fatal("expected error for unknown source frequency")
	}
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("error %v does not wrap ErrUnknownFrequency", err)
	}
	var le *LookupError
	if !errors.As(err, &le) || le.Value != "daily" {
		t.Fatalf("expected LookupError for \"daily\", got %#v", err)
	}

	if _, err := Convert(10, model.Monthly, "hourly"); !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("expected lookup failure for unknown target, got %v", err)
	}
}

func TestParse_Aliases(t *testing.T) {
	cases := map[string]model.Frequency{
		"Monthly":   model.Monthly,
		" weekly ":  model.Weekly,
		"yearly":    model.Annually,
		"fortnight": model.Fortnightly,
		"QUARTER":   model.Quarterly,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := Parse("sometimes"); !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("Parse(sometimes) err = %v, want ErrUnknownFrequency", err)
	}
}

func TestNextPrevWrap(t *testing.T) {
	if got := Next(model.Annually); got != model.Weekly {
		t.Fatalf("Next(annually) = %s, want weekly", got)
	}
	if got := Prev(model.Weekly); got != model.Annually {
		t.Fatalf("Prev(weekly) = %s, want annually", got)
	}
	if got := Next(model.Monthly); got != model.Quarterly {
		t.Fatalf("Next(monthly) = %s, want quarterly", got)
	}
}
