package records

import (
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// Day is a calendar date without a time component.
// It marshals to/from JSON as "YYYY-MM-DD".
type Day struct {
	t time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates the given moment to its calendar date,
// in the location of the given time.
func DayOf(t time.Time) Day {
	return NewDay(t.Date())
}

func ParseDay(value string) (Day, error) {
	t, err := time.Parse(dayFormat, value)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date [%s]: %w", value, err)
	}
	return Day{t: t}, nil
}

func (d Day) String() string {
	return d.t.Format(dayFormat)
}

func (d Day) IsZero() bool {
	return d.t.IsZero()
}

func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

func (d Day) After(other Day) bool {
	return d.t.After(other.t)
}

func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

func (d Day) AddDays(days int) Day {
	return Day{t: d.t.AddDate(0, 0, days)}
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date value: %s", data)
	}
	parsed, err := ParseDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Record is one day's logged health metrics.
type Record struct {
	ID              int       `json:"id"`
	Date            Day       `json:"date"`
	Steps           int       `json:"steps"`
	WorkoutDuration int       `json:"workoutDuration"` // minutes
	HeartRate       int       `json:"heartRate"`       // average bpm
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type HeartRateZone string

const (
	HeartRateZoneLow      HeartRateZone = "low"
	HeartRateZoneNormal   HeartRateZone = "normal"
	HeartRateZoneElevated HeartRateZone = "elevated"
)

// ZoneFor classifies an average heart rate. Used both for the
// record list badges and the dashboard status, so keep it in one place.
func ZoneFor(bpm int) HeartRateZone {
	switch {
	case bpm < 60:
		return HeartRateZoneLow
	case bpm <= 100:
		return HeartRateZoneNormal
	default:
		return HeartRateZoneElevated
	}
}
