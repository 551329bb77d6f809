// Package timeclock parses punch times and derives working hours from them.
package timeclock

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for any punch time that is neither 24-hour
// (HH:MM, HH:MM:SS) nor 12-hour (H:MM AM|PM) shaped.
var ErrInvalidFormat = errors.New("invalid time format")

var (
	layouts24 = []string{"15:04", "15:04:05"}
	layouts12 = []string{"3:04 PM", "3:04PM", "3:04:05 PM", "3:04:05PM"}
)

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse accepts "13:30", "13:30:15", "1:30 PM" and "1:30pm". The 24-hour form
// needs a two-digit hour. Seconds are dropped.
func Parse(raw string) (TimeOfDay, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return TimeOfDay{}, fmt.Errorf("%w: empty value", ErrInvalidFormat)
	}

	candidates := layouts24
	switch {
	case strings.HasSuffix(value, "AM") || strings.HasSuffix(value, "PM"):
		candidates = layouts12
		// time.Parse lets "0:30 PM" through; a 12-hour clock starts at 1.
		if strings.HasPrefix(value, "0:") || strings.HasPrefix(value, "00:") {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
	case len(value) < 5 || value[2] != ':':
		// The "15" layout also takes one digit; 24-hour input must be HH:MM.
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	for _, layout := range candidates {
		if t, err := time.Parse(layout, value); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(raw string) TimeOfDay {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the 24-hour HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Clock renders HH:MM:SS, the shape stored in TIME columns.
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// Hours returns the non-negative duration between two punches on date, in
// hours rounded to two decimals.
func Hours(date time.Time, in, out TimeOfDay) float64 {
	hours := out.On(date).Sub(in.On(date)).Hours()
	if math.IsNaN(hours) || hours < 0 {
		return 0
	}
	return Round2(hours)
}

// WorkingHours parses both punches and returns Hours for them.
func WorkingHours(date time.Time, checkIn, checkOut string) (float64, error) {
	in, err := Parse(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := Parse(checkOut)
	if err != nil {
		return 0, err
	}
	return Hours(date, in, out), nil
}

// Overtime returns the hours worked beyond standard. A non-positive standard disables it.
func Overtime(worked, standard float64) float64 {
	if standard <= 0 || worked <= standard {
		return 0
	}
	return Round2(worked - standard)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
