package usecase

import (
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"proxy-admin-bot/internal/domain"
	"proxy-admin-bot/internal/domain/model"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	maxNoteLen     = 500

	gigabyte = 1024 * 1024 * 1024
	day      = 24 * time.Hour

	// on-hold accounts get this long to connect for the first time
	onHoldTimeoutWindow = 365 * day
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(?:_[a-zA-Z0-9]+)*$`)
	relativePattern = regexp.MustCompile(`^([0-9]{1,3})([MmDd])$`)
)

// ValidateUsername checks the final username (after any template affixes).
func ValidateUsername(name string) error {
	if name == "" {
		return domain.NewValidationError("err.username_empty")
	}
	if len(name) < minUsernameLen {
		return domain.NewValidationError("err.username_too_short", minUsernameLen)
	}
	if len(name) > maxUsernameLen {
		return domain.NewValidationError("err.username_too_long", maxUsernameLen)
	}
	if !usernamePattern.MatchString(name) {
		return domain.NewValidationError("err.username_invalid")
	}
	return nil
}

// ParseDataLimit parses a GB amount into bytes. 0 means unlimited.
func ParseDataLimit(input string) (int64, error) {
	gb, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(gb) || math.IsInf(gb, 0) {
		return 0, domain.NewValidationError("err.data_limit_invalid")
	}
	if gb < 0 {
		return 0, domain.NewValidationError("err.data_limit_negative")
	}
	b, ok := gbToBytes(gb)
	if !ok {
		return 0, domain.NewValidationError("err.data_limit_invalid")
	}
	return b, nil
}

// ParseStatus accepts exactly active or on_hold.
func ParseStatus(input string) (model.AccountStatus, error) {
	switch st := model.AccountStatus(input); st {
	case model.StatusActive, model.StatusOnHold:
		return st, nil
	}
	return "", domain.NewValidationError("err.status_invalid")
}

// endOfToday returns today at 23:59:59 in t's location.
func endOfToday(t time.Time) time.Time {
	return now.With(t).EndOfDay().Truncate(time.Second)
}

// addMonths adds n calendar months, clamping the day to the target month's
// last day (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := now.With(first).EndOfMonth().Day()
	d := t.Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// ParseExpiry parses the active-path expiry at clock time at. A nil result
// means the account never expires.
func ParseExpiry(input string, at time.Time) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "0" {
		return nil, nil
	}
	var exp time.Time
	if m := relativePattern.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		base := endOfToday(at)
		if strings.EqualFold(m[2], "M") {
			exp = addMonths(base, n)
		} else {
			exp = base.AddDate(0, 0, n)
		}
	} else {
		d, err := time.ParseInLocation("2006-01-02", input, at.Location())
		if err != nil {
			return nil, domain.NewValidationError("err.expiry_invalid")
		}
		exp = d
	}
	if exp.Before(at) {
		return nil, domain.NewValidationError("err.expiry_past")
	}
	return &exp, nil
}

// ParseOnHoldDays parses the on-hold duration shorthand into days. Months
// count as 30 days; 0 means an unlimited hold.
func ParseOnHoldDays(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "0" {
		return 0, nil
	}
	m := relativePattern.FindStringSubmatch(input)
	if m == nil {
		return 0, domain.NewValidationError("err.on_hold_invalid")
	}
	n, _ := strconv.Atoi(m[1])
	if strings.EqualFold(m[2], "M") {
		n *= 30
	}
	return n, nil
}

// ParseSignedInt parses a non-zero integer used by bulk adjustments.
func ParseSignedInt(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n == 0 {
		return 0, domain.NewValidationError("err.bulk_value_invalid")
	}
	return n, nil
}

// ParseSignedGB parses a non-zero GB amount into bytes.
func ParseSignedGB(input string) (int64, error) {
	gb, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || gb == 0 || math.IsNaN(gb) || math.IsInf(gb, 0) {
		return 0, domain.NewValidationError("err.bulk_value_invalid")
	}
	b, ok := gbToBytes(gb)
	if !ok {
		return 0, domain.NewValidationError("err.bulk_value_invalid")
	}
	return b, nil
}

// gbToBytes reports false when the byte count does not fit in an int64.
// float64(math.MaxInt64) rounds up to 2^63, so the bound is exclusive.
func gbToBytes(gb float64) (int64, bool) {
	b := gb * gigabyte
	if b >= float64(math.MaxInt64) || b <= -float64(math.MaxInt64) {
		return 0, false
	}
	return int64(b), true
}

// ValidateNote bounds the note length.
func ValidateNote(note string) error {
	if len([]rune(note)) > maxNoteLen {
		return domain.NewValidationError("err.note_too_long", maxNoteLen)
	}
	return nil
}

const (
	letters      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumeric = letters + "0123456789"
)

// RandomUsername returns one letter followed by seven alphanumerics.
func RandomUsername() string {
	var b strings.Builder
	b.WriteByte(letters[rand.Intn(len(letters))])
	for i := 0; i < 7; i++ {
		b.WriteByte(alphanumeric[rand.Intn(len(alphanumeric))])
	}
	return b.String()
}
