package records

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate_ok(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	rec, fieldErrs := v.Validate(Draft{
		Date:            "2026-01-12",
		Steps:           "8500",
		WorkoutDuration: "45",
		HeartRate:       "72",
	}, today)
	require.Nil(t, fieldErrs)
	require.NotNil(t, rec)

	assert.Equal(t, "2026-01-12", rec.Date.String())
	assert.Equal(t, 8500, rec.Steps)
	assert.Equal(t, 45, rec.WorkoutDuration)
	assert.Equal(t, 72, rec.HeartRate)
}

func TestValidator_Validate_trimsWhitespace(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	rec, fieldErrs := v.Validate(Draft{
		Date:            "  2026-01-12  ",
		Steps:           " 8500 ",
		WorkoutDuration: "\t45",
		HeartRate:       "72 ",
	}, today)
	require.Nil(t, fieldErrs)
	require.NotNil(t, rec)
	assert.Equal(t, 8500, rec.Steps)
}

func TestValidator_Validate_todayIsNotFuture(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	rec, fieldErrs := v.Validate(Draft{
		Date:            "2026-01-15",
		Steps:           "0",
		WorkoutDuration: "0",
		HeartRate:       "60",
	}, today)
	require.Nil(t, fieldErrs)
	assert.True(t, rec.Date.Equal(today))
}

func TestValidator_Validate_fieldErrors(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	testCases := []struct {
		name  string
		draft Draft
		field string
		want  string
	}{
		{
			name:  "date missing",
			draft: Draft{Date: "", Steps: "100", WorkoutDuration: "10", HeartRate: "70"},
			field: "date",
			want:  "date is required",
		},
		{
			name:  "date malformed",
			draft: Draft{Date: "12.01.2026", Steps: "100", WorkoutDuration: "10", HeartRate: "70"},
			field: "date",
			want:  "date must be a valid calendar date in YYYY-MM-DD format",
		},
		{
			name:  "date not a real day",
			draft: Draft{Date: "2026-02-30", Steps: "100", WorkoutDuration: "10", HeartRate: "70"},
			field: "date",
			want:  "date must be a valid calendar date in YYYY-MM-DD format",
		},
		{
			name:  "date in the future",
			draft: Draft{Date: "2026-01-16", Steps: "100", WorkoutDuration: "10", HeartRate: "70"},
			field: "date",
			want:  "date must not be in the future",
		},
		{
			name:  "steps not a number",
			draft: Draft{Date: "2026-01-12", Steps: "lots", WorkoutDuration: "10", HeartRate: "70"},
			field: "steps",
			want:  "steps must be a whole number",
		},
		{
			name:  "steps fractional",
			draft: Draft{Date: "2026-01-12", Steps: "10.5", WorkoutDuration: "10", HeartRate: "70"},
			field: "steps",
			want:  "steps must be a whole number",
		},
		{
			name:  "steps negative",
			draft: Draft{Date: "2026-01-12", Steps: "-1", WorkoutDuration: "10", HeartRate: "70"},
			field: "steps",
			want:  "steps must not be negative",
		},
		{
			name:  "steps over the limit",
			draft: Draft{Date: "2026-01-12", Steps: "100001", WorkoutDuration: "10", HeartRate: "70"},
			field: "steps",
			want:  fmt.Sprintf("steps must not exceed %d", MaxSteps),
		},
		{
			name:  "workout duration not a number",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "an hour", HeartRate: "70"},
			field: "workoutDuration",
			want:  "workout duration must be a whole number of minutes",
		},
		{
			name:  "workout duration negative",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "-5", HeartRate: "70"},
			field: "workoutDuration",
			want:  "workout duration must not be negative",
		},
		{
			name:  "workout duration over full day",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "1441", HeartRate: "70"},
			field: "workoutDuration",
			want:  fmt.Sprintf("workout duration must not exceed %d minutes", MaxWorkoutDuration),
		},
		{
			name:  "heart rate not a number",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "10", HeartRate: "fast"},
			field: "heartRate",
			want:  "heart rate must be a whole number",
		},
		{
			name:  "heart rate too low",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "10", HeartRate: "29"},
			field: "heartRate",
			want:  "heart rate must be between 30 and 220 bpm",
		},
		{
			name:  "heart rate too high",
			draft: Draft{Date: "2026-01-12", Steps: "100", WorkoutDuration: "10", HeartRate: "221"},
			field: "heartRate",
			want:  "heart rate must be between 30 and 220 bpm",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, fieldErrs := v.Validate(tc.draft, today)
			assert.Nil(t, rec)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tc.want, fieldErrs[tc.field])
		})
	}
}

func TestValidator_Validate_boundsAreValid(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	for _, draft := range []Draft{
		{Date: "2026-01-12", Steps: "0", WorkoutDuration: "0", HeartRate: "30"},
		{Date: "2026-01-12", Steps: "100000", WorkoutDuration: "1440", HeartRate: "220"},
	} {
		rec, fieldErrs := v.Validate(draft, today)
		require.Nil(t, fieldErrs)
		require.NotNil(t, rec)
	}
}

func TestValidator_Validate_collectsAllFieldErrors(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	rec, fieldErrs := v.Validate(Draft{
		Date:            "2027-01-01",
		Steps:           "-20",
		WorkoutDuration: "nope",
		HeartRate:       "300",
	}, today)
	assert.Nil(t, rec)
	require.Len(t, fieldErrs, 4)
	assert.Contains(t, fieldErrs, "date")
	assert.Contains(t, fieldErrs, "steps")
	assert.Contains(t, fieldErrs, "workoutDuration")
	assert.Contains(t, fieldErrs, "heartRate")
	assert.Contains(t, fieldErrs.Error(), "steps must not be negative")
}

func TestValidator_Validate_customPolicy(t *testing.T) {
	v := NewValidator(Policy{HeartRateMin: 40, HeartRateMax: 200})
	today := mustDay(t, "2026-01-15")

	_, fieldErrs := v.Validate(Draft{
		Date: "2026-01-12", Steps: "100", WorkoutDuration: "10", HeartRate: "35",
	}, today)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "heart rate must be between 40 and 200 bpm", fieldErrs["heartRate"])

	rec, fieldErrs := v.Validate(Draft{
		Date: "2026-01-12", Steps: "100", WorkoutDuration: "10", HeartRate: "40",
	}, today)
	require.Nil(t, fieldErrs)
	assert.Equal(t, 40, rec.HeartRate)
}

func TestDraft_unmarshalStringAndNumericFields(t *testing.T) {
	quoted := `{"date":"2026-01-12","steps":"8500","workoutDuration":"45","heartRate":"72"}`
	numeric := `{"date":"2026-01-12","steps":8500,"workoutDuration":45,"heartRate":72}`

	var fromQuoted, fromNumeric Draft
	require.NoError(t, json.Unmarshal([]byte(quoted), &fromQuoted))
	require.NoError(t, json.Unmarshal([]byte(numeric), &fromNumeric))
	assert.Equal(t, fromQuoted, fromNumeric)
	assert.Equal(t, "8500", fromNumeric.Steps)

	// a fractional number survives the decode and fails validation instead
	var fractional Draft
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-01-12","steps":10.5,"workoutDuration":45,"heartRate":72}`), &fractional))
	assert.Equal(t, "10.5", fractional.Steps)

	// missing and null fields come out empty
	var sparse Draft
	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &sparse))
	assert.Empty(t, sparse.Date)
	assert.Empty(t, sparse.Steps)
}

func TestValidator_Validate_numericDraft(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	today := mustDay(t, "2026-01-15")

	var draft Draft
	require.NoError(t, json.Unmarshal(
		[]byte(`{"date":"2026-01-12","steps":8500,"workoutDuration":45,"heartRate":72}`),
		&draft,
	))

	rec, fieldErrs := v.Validate(draft, today)
	require.Nil(t, fieldErrs)
	require.NotNil(t, rec)
	assert.Equal(t, 8500, rec.Steps)
	assert.Equal(t, 45, rec.WorkoutDuration)
	assert.Equal(t, 72, rec.HeartRate)
}

func mustDay(t *testing.T, value string) Day {
	t.Helper()
	day, err := ParseDay(value)
	require.NoError(t, err)
	return day
}
