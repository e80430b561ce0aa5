package internal

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"

	"github.com/vitalog/vitalog/internal/health/records"
)

const seedDays = 14

// seedDemoRecords fills an empty store with two weeks of plausible
// activity, one record per day up to and including today.
func seedDemoRecords(ctx context.Context, store *records.Store) {
	today := records.DayOf(time.Now())
	for offset := -(seedDays - 1); offset <= 0; offset++ {
		rec := records.Record{
			Date:            today.AddDays(offset),
			Steps:           gofakeit.Number(2000, 16000),
			WorkoutDuration: gofakeit.Number(0, 90),
			HeartRate:       gofakeit.Number(55, 110),
		}
		if _, err := store.Add(ctx, rec); err != nil {
			log.Errorf("seed demo record for %s: %s", rec.Date, err)
		}
	}
	log.Infof("seeded %d demo health records", seedDays)
}
