package records

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vitalog/vitalog/internal/telemetry/tracing"
)

var ErrRecordNotFound = errors.New("record not found")

// Bridge persists the full record list outside of the process.
// Implementations live in internal/health/persistence.
type Bridge interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, recs []Record) error
}

// Store owns the canonical id to record mapping. All reads go through
// defensive copies, the internal map is never handed out.
type Store struct {
	mutex    sync.RWMutex
	records  map[int]Record
	nextID   int
	revision uint64
	bridge   Bridge
}

// NewStore creates a store preloaded through the given bridge. A load
// failure (missing or malformed stored data) is not fatal: the store
// starts empty and the error is logged.
func NewStore(ctx context.Context, bridge Bridge) *Store {
	s := &Store{
		records: make(map[int]Record),
		nextID:  1,
		bridge:  bridge,
	}

	if bridge == nil {
		return s
	}

	loaded, err := bridge.Load(ctx)
	if err != nil {
		log.Errorf("records store: load persisted records: %s, starting empty", err)
		return s
	}

	for _, rec := range loaded {
		s.records[rec.ID] = rec
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
	}

	log.Debugf("records store: loaded %d records", len(loaded))
	return s
}

// NewTestStore creates an empty in-memory store with no persistence.
func NewTestStore() *Store {
	return NewStore(context.Background(), nil)
}

func (s *Store) Add(ctx context.Context, rec Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.store.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Time{}

	s.records[rec.ID] = rec
	s.revision++
	s.persist(ctx)

	return &rec, nil
}

func (s *Store) Update(ctx context.Context, id int, rec Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.store.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	// replace the mutable fields, id and createdAt stay
	current.Date = rec.Date
	current.Steps = rec.Steps
	current.WorkoutDuration = rec.WorkoutDuration
	current.HeartRate = rec.HeartRate
	current.UpdatedAt = time.Now()

	s.records[id] = current
	s.revision++
	s.persist(ctx)

	return &current, nil
}

func (s *Store) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.store.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrRecordNotFound
	}

	delete(s.records, id)
	s.revision++
	s.persist(ctx)

	return nil
}

func (s *Store) Get(_ context.Context, id int) (*Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

// List returns a copy of all records, ordered by date descending,
// ties broken by id descending.
func (s *Store) List(_ context.Context) []Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.listLocked()
}

// Revision is bumped on every mutation, used for summary cache invalidation.
func (s *Store) Revision() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.revision
}

func (s *Store) listLocked() []Record {
	recs := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[j].Date.Before(recs[i].Date)
		}
		return recs[j].ID < recs[i].ID
	})
	return recs
}

// persist pushes the current record list through the bridge. A failed
// save is logged and swallowed, the in-memory state stays authoritative.
// Callers must hold the write lock.
func (s *Store) persist(ctx context.Context) {
	if s.bridge == nil {
		return
	}
	if err := s.bridge.Save(ctx, s.listLocked()); err != nil {
		log.Errorf("records store: persist %d records: %s", len(s.records), err)
	}
}
