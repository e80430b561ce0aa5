package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vitalog/vitalog/internal/telemetry/metrics"
	"github.com/vitalog/vitalog/internal/telemetry/tracing"
	"github.com/vitalog/vitalog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=records_mocks_test.go -package=records_test

type recordsStore interface {
	Add(ctx context.Context, rec Record) (*Record, error)
	Update(ctx context.Context, id int, rec Record) (*Record, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*Record, error)
	List(ctx context.Context) []Record
}

type ListResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

type DeleteRecordResponse struct {
	DeletedID int `json:"deletedId"`
}

// ValidationErrorResponse carries the per-field messages, so the
// dashboard can annotate each input separately.
type ValidationErrorResponse struct {
	Errors FieldErrors `json:"errors"`
}

type Handler struct {
	store     recordsStore
	validator *Validator
	metrics   *metrics.Manager
}

func NewHandler(store recordsStore, validator *Validator, metrics *metrics.Manager) *Handler {
	return &Handler{
		store:     store,
		validator: validator,
		metrics:   metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.add")
	defer span.End()

	draft, err := draftFromRequest(r)
	if err != nil {
		log.Tracef("new record, read draft params: %s", err)
		http.Error(w, "add record failed", http.StatusBadRequest)
		return
	}

	rec, fieldErrs := handler.validator.Validate(draft, DayOf(time.Now()))
	if fieldErrs != nil {
		writeFieldErrors(w, fieldErrs)
		return
	}

	addedRecord, err := handler.store.Add(ctx, *rec)
	if err != nil {
		log.Errorf("failed to add new record [%s]: %s", rec.Date, err)
		http.Error(w, "error, failed to add new record", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRecordsCreated.Inc()

	addedRecJson, err := json.Marshal(addedRecord)
	if err != nil {
		log.Errorf("failed to marshal added record: %s", err)
		http.Error(w, "error, failed to add new record", http.StatusInternalServerError)
		return
	}

	log.Debugf("new record added: %s", addedRecJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedRecJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.update")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	draft, err := draftFromRequest(r)
	if err != nil {
		log.Tracef("update record, read draft params: %s", err)
		http.Error(w, "update record failed", http.StatusBadRequest)
		return
	}

	rec, fieldErrs := handler.validator.Validate(draft, DayOf(time.Now()))
	if fieldErrs != nil {
		writeFieldErrors(w, fieldErrs)
		return
	}

	updatedRecord, err := handler.store.Update(ctx, id, *rec)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to update record %d: %s", id, err)
		http.Error(w, "error, failed to update record", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRecordsUpdated.Inc()

	updatedRecJson, err := json.Marshal(updatedRecord)
	if err != nil {
		log.Errorf("failed to marshal updated record: %s", err)
		http.Error(w, "error, failed to update record", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updatedRecJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.delete")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// the dashboard asks the user for confirmation before calling this,
	// here the delete is unconditional
	err = handler.store.Delete(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete record %d: %s", id, err)
		http.Error(w, "error, record not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRecordsDeleted.Inc()

	respJson, err := json.Marshal(DeleteRecordResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.get")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := handler.store.Get(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get record %d: %s", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	recJson, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("failed to marshal record: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, recJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.list")
	defer span.End()

	recs := handler.store.List(ctx)
	if recs == nil {
		recs = []Record{}
	}

	respJson, err := json.Marshal(ListResponse{
		Records: recs,
		Total:   len(recs),
	})
	if err != nil {
		log.Errorf("marshal records error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func draftFromRequest(r *http.Request) (Draft, error) {
	if r.Header.Get("Content-Type") == "application/json" {
		var draft Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			return Draft{}, err
		}
		return draft, nil
	}

	if err := r.ParseForm(); err != nil {
		return Draft{}, err
	}
	return Draft{
		Date:            r.Form.Get("date"),
		Steps:           r.Form.Get("steps"),
		WorkoutDuration: r.Form.Get("workoutDuration"),
		HeartRate:       r.Form.Get("heartRate"),
	}, nil
}

func idParam(r *http.Request) (int, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("error, id empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.New("error, id NaN")
	}
	return id, nil
}

func writeFieldErrors(w http.ResponseWriter, fieldErrs FieldErrors) {
	respJson, err := json.Marshal(ValidationErrorResponse{Errors: fieldErrs})
	if err != nil {
		log.Errorf("failed to marshal field errors: %s", err)
		http.Error(w, "invalid record", http.StatusBadRequest)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusBadRequest)
}
