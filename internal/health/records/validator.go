package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxSteps           = 100_000
	MaxWorkoutDuration = 24 * 60 // minutes in a day

	DefaultHeartRateMin = 30
	DefaultHeartRateMax = 220
)

// Policy holds the configurable validation bounds. Some trackers use
// tighter heart rate bounds (e.g. [40, 200]), hence not hardcoded.
type Policy struct {
	HeartRateMin int
	HeartRateMax int
}

func DefaultPolicy() Policy {
	return Policy{
		HeartRateMin: DefaultHeartRateMin,
		HeartRateMax: DefaultHeartRateMax,
	}
}

// Draft is a raw, not yet validated record, as it comes from
// the dashboard form fields or a JSON body.
type Draft struct {
	Date            string `json:"date"`
	Steps           string `json:"steps"`
	WorkoutDuration string `json:"workoutDuration"`
	HeartRate       string `json:"heartRate"`
}

// UnmarshalJSON accepts both field encodings clients send: quoted form
// values ("8500") and plain JSON numbers (8500). Either way the value
// ends up as field text for Validate to judge.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date            json.RawMessage `json:"date"`
		Steps           json.RawMessage `json:"steps"`
		WorkoutDuration json.RawMessage `json:"workoutDuration"`
		HeartRate       json.RawMessage `json:"heartRate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Date = fieldText(raw.Date)
	d.Steps = fieldText(raw.Steps)
	d.WorkoutDuration = fieldText(raw.WorkoutDuration)
	d.HeartRate = fieldText(raw.HeartRate)
	return nil
}

// fieldText flattens a raw JSON value: strings are unquoted, numbers
// (and any other literal) keep their text form, so a bad value still
// reaches the validator instead of failing the decode.
func fieldText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// FieldErrors maps a draft field name to a human-readable message,
// so the dashboard can annotate each offending input separately.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

type Validator struct {
	policy Policy
}

func NewValidator(policy Policy) *Validator {
	return &Validator{
		policy: policy,
	}
}

// Validate checks the draft field by field and either returns a normalized
// record, or the full set of field errors. The reference date is always
// passed in explicitly, never read from the system clock.
func (v *Validator) Validate(draft Draft, today Day) (*Record, FieldErrors) {
	fieldErrs := FieldErrors{}

	date, err := ParseDay(strings.TrimSpace(draft.Date))
	switch {
	case strings.TrimSpace(draft.Date) == "":
		fieldErrs["date"] = "date is required"
	case err != nil:
		fieldErrs["date"] = "date must be a valid calendar date in YYYY-MM-DD format"
	case date.After(today):
		fieldErrs["date"] = "date must not be in the future"
	}

	steps, stepsErr := intField(draft.Steps)
	switch {
	case stepsErr != nil:
		fieldErrs["steps"] = "steps must be a whole number"
	case steps < 0:
		fieldErrs["steps"] = "steps must not be negative"
	case steps > MaxSteps:
		fieldErrs["steps"] = fmt.Sprintf("steps must not exceed %d", MaxSteps)
	}

	workout, workoutErr := intField(draft.WorkoutDuration)
	switch {
	case workoutErr != nil:
		fieldErrs["workoutDuration"] = "workout duration must be a whole number of minutes"
	case workout < 0:
		fieldErrs["workoutDuration"] = "workout duration must not be negative"
	case workout > MaxWorkoutDuration:
		fieldErrs["workoutDuration"] = fmt.Sprintf("workout duration must not exceed %d minutes", MaxWorkoutDuration)
	}

	heartRate, heartRateErr := intField(draft.HeartRate)
	switch {
	case heartRateErr != nil:
		fieldErrs["heartRate"] = "heart rate must be a whole number"
	case heartRate < v.policy.HeartRateMin || heartRate > v.policy.HeartRateMax:
		fieldErrs["heartRate"] = fmt.Sprintf(
			"heart rate must be between %d and %d bpm",
			v.policy.HeartRateMin, v.policy.HeartRateMax,
		)
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	return &Record{
		Date:            date,
		Steps:           steps,
		WorkoutDuration: workout,
		HeartRate:       heartRate,
	}, nil
}

func intField(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(value)
}
