package records

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_jsonRoundTrip(t *testing.T) {
	day := NewDay(2026, time.January, 12)

	data, err := json.Marshal(day)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-12"`, string(data))

	var parsed Day
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, day.Equal(parsed))
}

func TestDay_unmarshalInvalid(t *testing.T) {
	var day Day
	assert.Error(t, json.Unmarshal([]byte(`"12.01.2026"`), &day))
	assert.Error(t, json.Unmarshal([]byte(`20260112`), &day))
	assert.Error(t, json.Unmarshal([]byte(`""`), &day))
}

func TestDay_ordering(t *testing.T) {
	jan12 := NewDay(2026, time.January, 12)
	jan13 := NewDay(2026, time.January, 13)

	assert.True(t, jan13.After(jan12))
	assert.True(t, jan12.Before(jan13))
	assert.False(t, jan12.After(jan12))
	assert.True(t, jan12.AddDays(1).Equal(jan13))
	assert.True(t, jan13.AddDays(-1).Equal(jan12))
}

func TestDayOf_dropsTimeComponent(t *testing.T) {
	moment := time.Date(2026, time.January, 12, 23, 59, 59, 0, time.UTC)
	assert.True(t, DayOf(moment).Equal(NewDay(2026, time.January, 12)))
}

func TestZoneFor(t *testing.T) {
	assert.Equal(t, HeartRateZoneLow, ZoneFor(59))
	assert.Equal(t, HeartRateZoneNormal, ZoneFor(60))
	assert.Equal(t, HeartRateZoneNormal, ZoneFor(100))
	assert.Equal(t, HeartRateZoneElevated, ZoneFor(101))
}

func TestRecord_jsonFieldNames(t *testing.T) {
	rec := Record{
		ID:              3,
		Date:            NewDay(2026, time.January, 12),
		Steps:           8500,
		WorkoutDuration: 45,
		HeartRate:       72,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(data, &asMap))
	for _, key := range []string{"id", "date", "steps", "workoutDuration", "heartRate", "createdAt", "updatedAt"} {
		assert.Contains(t, asMap, key)
	}
	assert.Equal(t, "2026-01-12", asMap["date"])
}
