package timeclock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptedShapes(t *testing.T) {
	cases := map[string]TimeOfDay{
		"09:00":       {Hour: 9, Minute: 0},
		"18:30:45":    {Hour: 18, Minute: 30},
		"00:00":       {Hour: 0, Minute: 0},
		"23:59":       {Hour: 23, Minute: 59},
		"12:07 PM":    {Hour: 12, Minute: 7},
		"12:00 AM":    {Hour: 0, Minute: 0},
		"1:30 PM":     {Hour: 13, Minute: 30},
		"11:59 pm":    {Hour: 23, Minute: 59},
		"9:15am":      {Hour: 9, Minute: 15},
		" 7:45 AM ":   {Hour: 7, Minute: 45},
		"09:15 AM":    {Hour: 9, Minute: 15},
		"10:20:30 AM": {Hour: 10, Minute: 20},
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			got, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "  ", "24:00", "12:60", "9", "nine", "13:00 PM", "0:30 PM", "00:30 AM", "12:5", "09-00", "9:00 XM", "2024-01-01T09:00", "9:05", "7:30:00"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParseFormatsAgree(t *testing.T) {
	pairs := [][2]string{
		{"13:30", "1:30 PM"},
		{"00:15", "12:15 AM"},
		{"12:00", "12:00 PM"},
		{"08:05:59", "8:05 AM"},
	}
	for _, pair := range pairs {
		a, err := Parse(pair[0])
		require.NoError(t, err)
		b, err := Parse(pair[1])
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s vs %s", pair[0], pair[1])
	}
}

func TestTimeOfDayRendering(t *testing.T) {
	tod := MustParse("7:05 PM")
	assert.Equal(t, "19:05", tod.String())
	assert.Equal(t, "19:05:00", tod.Clock())

	reparsed, err := Parse(tod.Clock())
	require.NoError(t, err)
	assert.Equal(t, tod, reparsed)
}

func TestWorkingHours(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	hours, err := WorkingHours(date, "09:00", "18:30")
	require.NoError(t, err)
	assert.Equal(t, 9.5, hours)

	hours, err = WorkingHours(date, "9:00 AM", "5:20 PM")
	require.NoError(t, err)
	assert.Equal(t, 8.33, hours)

	hours, err = WorkingHours(date, "18:00", "09:00")
	require.NoError(t, err)
	assert.Equal(t, float64(0), hours)

	hours, err = WorkingHours(date, "10:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, float64(0), hours)

	_, err = WorkingHours(date, "bogus", "10:00")
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = WorkingHours(date, "10:00", "25:00")
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestHoursNeverNegativeOrNaN(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for inH := 0; inH < 24; inH += 3 {
		for outH := 0; outH < 24; outH += 5 {
			h := Hours(date, TimeOfDay{Hour: inH, Minute: 17}, TimeOfDay{Hour: outH, Minute: 41})
			assert.False(t, math.IsNaN(h))
			assert.GreaterOrEqual(t, h, float64(0))
		}
	}
}

func TestOvertime(t *testing.T) {
	assert.Equal(t, float64(0), Overtime(9.5, 0))
	assert.Equal(t, float64(0), Overtime(7, 8))
	assert.Equal(t, 1.5, Overtime(9.5, 8))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 8.33, Round2(8.333333))
	assert.Equal(t, 0.67, Round2(2.0/3.0))
	assert.Equal(t, float64(0), Round2(math.NaN()))
	assert.Equal(t, float64(0), Round2(math.Inf(1)))
}
