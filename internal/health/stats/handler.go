package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/vitalog/vitalog/internal/health/records"
	"github.com/vitalog/vitalog/internal/telemetry/tracing"
	"github.com/vitalog/vitalog/pkg"
)

const summaryCacheExpireSeconds = 60 * 60

type recordsLister interface {
	List(ctx context.Context) []records.Record
	Revision() uint64
}

type Handler struct {
	store recordsLister
	opts  Options
	cache *freecache.Cache
}

func NewHandler(store recordsLister, opts Options) *Handler {
	megabyte := 1024 * 1024
	return &Handler{
		store: store,
		opts:  opts,
		cache: freecache.NewCache(megabyte),
	}
}

// HandleSummary serves the aggregated dashboard statistics. Responses are
// cached per store revision and day, so repeated dashboard refreshes do
// not recompute anything.
func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.summary")
	defer span.End()

	today := records.DayOf(time.Now())
	if todayParam := r.URL.Query().Get("today"); todayParam != "" {
		parsed, err := records.ParseDay(todayParam)
		if err != nil {
			http.Error(w, "error, invalid today param", http.StatusBadRequest)
			return
		}
		today = parsed
	}

	opts := handler.opts
	if goalParam := r.URL.Query().Get("goal"); goalParam != "" {
		goal, err := strconv.Atoi(goalParam)
		if err != nil || goal <= 0 {
			http.Error(w, "error, invalid goal param", http.StatusBadRequest)
			return
		}
		opts.DailyStepGoal = goal
	}

	cacheKey := []byte(fmt.Sprintf(
		"summary::%d::%s::%d",
		handler.store.Revision(), today, opts.DailyStepGoal,
	))
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	summary := Summarize(handler.store.List(ctx), today, opts)

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal summary: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, summaryJson, summaryCacheExpireSeconds); err != nil {
		log.Tracef("failed to cache summary: %s", err)
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryJson, http.StatusOK)
}
