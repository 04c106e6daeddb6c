//go:build !integration

package usecase

import (
	"strings"
	"testing"
	"time"

	"proxy-admin-bot/internal/domain"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice_01", "abc", "a1_b2_c3", "Bob", strings.Repeat("x", 32), "007"}
	for _, name := range valid {
		t.Run("accepts "+name, func(t *testing.T) {
			if err := ValidateUsername(name); err != nil {
				t.Errorf("expected %q to be accepted, got %v", name, err)
			}
		})
	}

	invalid := map[string]string{
		"empty":             "",
		"too short":         "ab",
		"too long":          strings.Repeat("x", 33),
		"leading":           "_alice",
		"trailing":          "alice_",
		"doubled":           "al__ice",
		"dash":              "al-ice",
		"dot":               "al.ice",
		"space":             "al ice",
		"at sign":           "al@ice",
		"only underscores":  "___",
		"non-ascii letters": "алиса",
	}
	for name, input := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			err := ValidateUsername(input)
			if domain.KindOf(err) != domain.KindValidation {
				t.Errorf("expected validation error for %q, got %v", input, err)
			}
		})
	}
}

func TestValidateUsername_LengthMessages(t *testing.T) {
	var fe *domain.FlowError
	if err := ValidateUsername("ab"); !asFlow(err, &fe) || fe.Key != "err.username_too_short" {
		t.Errorf("expected too_short, got %v", err)
	}
	if err := ValidateUsername(strings.Repeat("a", 40)); !asFlow(err, &fe) || fe.Key != "err.username_too_long" {
		t.Errorf("expected too_long, got %v", err)
	}
}

func TestParseDataLimit(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10", 10 * gigabyte, false},
		{"0", 0, false},
		{"-0", 0, false},
		{"0.5", gigabyte / 2, false},
		{" 2 ", 2 * gigabyte, false},
		{"-1", 0, true},
		{"-0.1", 0, true},
		{"ten", 0, true},
		{"NaN", 0, true},
		{"", 0, true},
		{"9000000000", 0, true},
		{"1e12", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDataLimit(tc.in)
			if tc.wantErr {
				if domain.KindOf(err) != domain.KindValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseDataLimit(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, ok := range []string{"active", "on_hold"} {
		if _, err := ParseStatus(ok); err != nil {
			t.Errorf("expected %q to be accepted: %v", ok, err)
		}
	}
	for _, bad := range []string{"onhold", "disabled", "ACTIVE", ""} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestParseExpiry(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, loc)

	t.Run("months are relative to today at 23:59:59", func(t *testing.T) {
		got, err := ParseExpiry("3M", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 4, 15, 23, 59, 59, 0, loc)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("days and lowercase suffix", func(t *testing.T) {
		got, err := ParseExpiry("10d", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 1, 25, 23, 59, 59, 0, loc)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("month addition clamps to month end", func(t *testing.T) {
		endOfJan := time.Date(2025, 1, 31, 8, 0, 0, 0, loc)
		got, err := ParseExpiry("1M", endOfJan)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, 2, 28, 23, 59, 59, 0, loc)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("zero means never", func(t *testing.T) {
		got, err := ParseExpiry("0", now)
		if err != nil || got != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("absolute date in the future", func(t *testing.T) {
		got, err := ParseExpiry("2025-03-01", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)) {
			t.Errorf("unexpected date %v", got)
		}
	})

	rejected := map[string]string{
		"yesterday":         "2025-01-14",
		"today at midnight": "2025-01-15",
		"four digits":       "1000D",
		"unknown unit":      "3Y",
		"garbage":           "soon",
		"bad date":          "2025-13-40",
	}
	for name, in := range rejected {
		t.Run("rejects "+name, func(t *testing.T) {
			got, err := ParseExpiry(in, now)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("expected validation error, got (%v, %v)", got, err)
			}
		})
	}
}

func TestParseExpiry_NeverBeforeNow(t *testing.T) {
	now := time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)
	inputs := []string{"0D", "0M", "1D", "1M", "12M", "999D", "2025-06-30", "2025-07-01", "2024-12-31"}
	for _, in := range inputs {
		got, err := ParseExpiry(in, now)
		if err != nil {
			continue
		}
		if got != nil && got.Before(now) {
			t.Errorf("%q resolved to %v which is before now", in, got)
		}
	}
}

func TestParseOnHoldDays(t *testing.T) {
	cases := map[string]int{"3M": 90, "30D": 30, "1m": 30, "0": 0, "0D": 0}
	for in, want := range cases {
		got, err := ParseOnHoldDays(in)
		if err != nil {
			t.Fatalf("ParseOnHoldDays(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseOnHoldDays(%q) = %d, want %d", in, got, want)
		}
	}
	for _, bad := range []string{"2025-03-01", "-3D", "D", "ten days"} {
		if _, err := ParseOnHoldDays(bad); domain.KindOf(err) != domain.KindValidation {
			t.Errorf("expected %q to be rejected, got %v", bad, err)
		}
	}
}

func TestParseSignedValues(t *testing.T) {
	if v, err := ParseSignedInt("-5"); err != nil || v != -5 {
		t.Errorf("ParseSignedInt(-5) = %d, %v", v, err)
	}
	if _, err := ParseSignedInt("0"); err == nil {
		t.Error("zero must be rejected")
	}
	if v, err := ParseSignedGB("1.5"); err != nil || v != gigabyte*3/2 {
		t.Errorf("ParseSignedGB(1.5) = %d, %v", v, err)
	}
	if _, err := ParseSignedGB("x"); err == nil {
		t.Error("garbage must be rejected")
	}
	for _, in := range []string{"9000000000", "-9000000000", "1e12"} {
		if _, err := ParseSignedGB(in); domain.KindOf(err) != domain.KindValidation {
			t.Errorf("ParseSignedGB(%q) must be rejected, got %v", in, err)
		}
	}
}

func TestValidateNote(t *testing.T) {
	if err := ValidateNote(strings.Repeat("n", 500)); err != nil {
		t.Errorf("500 chars must be accepted: %v", err)
	}
	if err := ValidateNote(strings.Repeat("n", 501)); err == nil {
		t.Error("501 chars must be rejected")
	}
}

func TestRandomUsername(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := RandomUsername()
		if len(name) != 8 {
			t.Fatalf("expected 8 chars, got %q", name)
		}
		if !strings.ContainsRune(letters, rune(name[0])) {
			t.Fatalf("expected leading letter, got %q", name)
		}
		if err := ValidateUsername(name); err != nil {
			t.Fatalf("random username %q failed validation: %v", name, err)
		}
	}
}

func asFlow(err error, target **domain.FlowError) bool {
	fe, ok := err.(*domain.FlowError)
	if ok {
		*target = fe
	}
	return ok
}
