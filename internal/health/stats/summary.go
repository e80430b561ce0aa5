package stats

import (
	"math"

	"github.com/vitalog/vitalog/internal/health/records"
)

const DefaultDailyStepGoal = 10_000

type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingNeedsWork Rating = "needs work"
)

// ConsistencyThresholds are the average daily workout minutes needed
// for each rating.
type ConsistencyThresholds struct {
	Excellent int
	Good      int
	Fair      int
}

type Options struct {
	DailyStepGoal int
	Consistency   ConsistencyThresholds
}

func DefaultOptions() Options {
	return Options{
		DailyStepGoal: DefaultDailyStepGoal,
		Consistency: ConsistencyThresholds{
			Excellent: 30,
			Good:      20,
			Fair:      10,
		},
	}
}

type DayBucket struct {
	Date        records.Day `json:"date"`
	Steps       int         `json:"steps"`
	GoalPercent float64     `json:"goalPercent"`
}

type Summary struct {
	TotalSteps          int                   `json:"totalSteps"`
	TotalWorkoutMinutes int                   `json:"totalWorkoutMinutes"`
	AverageHeartRate    int                   `json:"averageHeartRate"`
	HeartRateZone       records.HeartRateZone `json:"heartRateZone"`
	DailyAverageSteps   int                   `json:"dailyAverageSteps"`
	StepGoalProgress    float64               `json:"stepGoalProgress"`
	WorkoutConsistency  Rating                `json:"workoutConsistency"`
	WeeklySeries        []DayBucket           `json:"weeklySeries"`
}

// Summarize computes the dashboard statistics for the given records.
// It is a pure function: the reference day comes in as a parameter and
// an empty record list yields zeroed totals with a zero-filled weekly
// series, so the dashboard never has to special-case emptiness.
func Summarize(recs []records.Record, today records.Day, opts Options) Summary {
	if opts.DailyStepGoal <= 0 {
		opts.DailyStepGoal = DefaultDailyStepGoal
	}
	if opts.Consistency == (ConsistencyThresholds{}) {
		opts.Consistency = DefaultOptions().Consistency
	}

	summary := Summary{
		WeeklySeries: weeklySeries(recs, today, opts.DailyStepGoal),
	}

	var heartRateSum int
	for _, rec := range recs {
		summary.TotalSteps += rec.Steps
		summary.TotalWorkoutMinutes += rec.WorkoutDuration
		heartRateSum += rec.HeartRate
	}

	count := len(recs)
	if count > 0 {
		summary.AverageHeartRate = roundedDiv(heartRateSum, count)
		summary.DailyAverageSteps = roundedDiv(summary.TotalSteps, count)
		summary.StepGoalProgress = goalPercent(summary.TotalSteps, opts.DailyStepGoal*count)
	}
	summary.HeartRateZone = records.ZoneFor(summary.AverageHeartRate)
	summary.WorkoutConsistency = consistencyRating(summary.TotalWorkoutMinutes, count, opts.Consistency)

	return summary
}

// weeklySeries builds the 7 trailing calendar day buckets ending at today,
// chronological ascending. Days with no record get a zero bucket.
func weeklySeries(recs []records.Record, today records.Day, dailyStepGoal int) []DayBucket {
	day2record := make(map[string]records.Record)
	for _, rec := range recs {
		key := rec.Date.String()
		current, ok := day2record[key]
		if !ok || preferForDay(rec, current) {
			day2record[key] = rec
		}
	}

	series := make([]DayBucket, 0, 7)
	for offset := -6; offset <= 0; offset++ {
		day := today.AddDays(offset)
		bucket := DayBucket{Date: day}
		if rec, ok := day2record[day.String()]; ok {
			bucket.Steps = rec.Steps
			bucket.GoalPercent = goalPercent(rec.Steps, dailyStepGoal)
		}
		series = append(series, bucket)
	}
	return series
}

// preferForDay decides deterministically which of two records sharing a
// date represents that day: the most recently updated one, falling back
// to the higher id. The store keeps ids unique, so duplicate dates only
// appear with imported data.
func preferForDay(candidate, current records.Record) bool {
	candidateTouched := candidate.UpdatedAt
	if candidateTouched.IsZero() {
		candidateTouched = candidate.CreatedAt
	}
	currentTouched := current.UpdatedAt
	if currentTouched.IsZero() {
		currentTouched = current.CreatedAt
	}
	if !candidateTouched.Equal(currentTouched) {
		return candidateTouched.After(currentTouched)
	}
	return candidate.ID > current.ID
}

func consistencyRating(totalWorkoutMinutes, recordCount int, thresholds ConsistencyThresholds) Rating {
	if recordCount == 0 {
		return RatingNeedsWork
	}
	avgDailyMinutes := roundedDiv(totalWorkoutMinutes, recordCount)
	switch {
	case avgDailyMinutes >= thresholds.Excellent:
		return RatingExcellent
	case avgDailyMinutes >= thresholds.Good:
		return RatingGood
	case avgDailyMinutes >= thresholds.Fair:
		return RatingFair
	default:
		return RatingNeedsWork
	}
}

// goalPercent is the achieved percentage of the goal, capped at 100,
// with two decimals.
func goalPercent(achieved, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	p := float64(achieved) / float64(goal) * 100
	if p > 100 {
		return 100
	}
	// leave only 2 decimals
	return float64(int(p*100)) / 100
}

func roundedDiv(sum, count int) int {
	return int(math.Round(float64(sum) / float64(count)))
}
