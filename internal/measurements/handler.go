package measurements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dsimic/bodystats/internal/telemetry/metrics"
	"github.com/dsimic/bodystats/internal/telemetry/tracing"
	"github.com/dsimic/bodystats/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=measurements_test

type chartsAnalyzer interface {
	Scatter(ctx context.Context, filter Filter, xField, yField Field) (*ScatterChart, error)
	TimeProgression(ctx context.Context, filter Filter, field Field, groupDays int) (*TimeProgressionChart, error)
	VariationCards(ctx context.Context, filter Filter) ([]VariationCard, error)
}

// MinGroupTimeDays is the smallest allowed time progression window.
const MinGroupTimeDays = 7

const dateLayout = "2006-01-02"

// Handler serves the chart endpoints consumed by the browser frontend.
// Responses are cached in redis for a short while, the dataset changes
// only on imports.
type Handler struct {
	analyzer       chartsAnalyzer
	redisClient    *redis.Client
	cacheTTL       time.Duration
	metricsManager *metrics.Manager
}

func NewHandler(
	analyzer chartsAnalyzer,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		analyzer:       analyzer,
		redisClient:    redisClient,
		cacheTTL:       cacheTTL,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) HandleMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodystats.measurements")
	defer span.End()

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	xField, err := ParseField(r.URL.Query().Get("x_field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	yField, err := ParseField(r.URL.Query().Get("y_field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cacheKey := "charts::measurements::" + r.URL.RawQuery
	if cached := handler.cachedResponse(ctx, cacheKey); cached != nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	chart, err := handler.analyzer.Scatter(ctx, filter, xField, yField)
	if err != nil {
		log.Errorf("failed to get measurements chart: %s", err)
		http.Error(w, "failed to get measurements chart", http.StatusInternalServerError)
		return
	}

	chartJson, err := json.Marshal(chart)
	if err != nil {
		log.Errorf("failed to marshal measurements chart: %s", err)
		http.Error(w, "failed to marshal measurements chart", http.StatusInternalServerError)
		return
	}

	handler.cacheResponse(ctx, cacheKey, chartJson)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, chartJson)
}

func (handler *Handler) HandleTimeProgression(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodystats.timeProgression")
	defer span.End()

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	measureField, err := ParseField(r.URL.Query().Get("measure_field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	groupTime, err := strconv.Atoi(r.URL.Query().Get("group_time"))
	if err != nil {
		http.Error(w, "group time must be a whole number of days", http.StatusBadRequest)
		return
	}
	if groupTime < MinGroupTimeDays {
		http.Error(
			w,
			fmt.Sprintf("group time must be at least %d days", MinGroupTimeDays),
			http.StatusBadRequest,
		)
		return
	}

	cacheKey := "charts::time-progression::" + r.URL.RawQuery
	if cached := handler.cachedResponse(ctx, cacheKey); cached != nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	chart, err := handler.analyzer.TimeProgression(ctx, filter, measureField, groupTime)
	if err != nil {
		log.Errorf("failed to get time progression chart: %s", err)
		http.Error(w, "failed to get time progression chart", http.StatusInternalServerError)
		return
	}

	chartJson, err := json.Marshal(chart)
	if err != nil {
		log.Errorf("failed to marshal time progression chart: %s", err)
		http.Error(w, "failed to marshal time progression chart", http.StatusInternalServerError)
		return
	}

	handler.cacheResponse(ctx, cacheKey, chartJson)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, chartJson)
}

func (handler *Handler) HandleVariationCard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodystats.variationCard")
	defer span.End()

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cacheKey := "charts::variation-card::" + r.URL.RawQuery
	if cached := handler.cachedResponse(ctx, cacheKey); cached != nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	cards, err := handler.analyzer.VariationCards(ctx, filter)
	if err != nil {
		log.Errorf("failed to get variation cards: %s", err)
		http.Error(w, "failed to get variation cards", http.StatusInternalServerError)
		return
	}

	cardsJson, err := json.Marshal(cards)
	if err != nil {
		log.Errorf("failed to marshal variation cards: %s", err)
		http.Error(w, "failed to marshal variation cards", http.StatusInternalServerError)
		return
	}

	handler.cacheResponse(ctx, cacheKey, cardsJson)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cardsJson)
}

// filterFromQuery reads the start_date / end_date query params. The end
// date is inclusive, the filter covers its whole day. A start date after
// the end date is not an error, it just matches nothing.
func filterFromQuery(r *http.Request) (Filter, error) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if startDate == "" || endDate == "" {
		return Filter{}, errors.New("start_date and end_date are required")
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return Filter{}, errors.New("invalid date format")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return Filter{}, errors.New("invalid date format")
	}
	end = end.Add(24*time.Hour - time.Nanosecond)

	return Filter{
		DeviceID: r.URL.Query().Get("device_id"),
		From:     &start,
		To:       &end,
	}, nil
}

func (handler *Handler) cachedResponse(ctx context.Context, key string) []byte {
	if handler.redisClient == nil || handler.cacheTTL <= 0 {
		return nil
	}

	cached, err := handler.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Errorf("failed to get cached chart response [%s]: %s", key, err)
		}
		if handler.metricsManager != nil {
			handler.metricsManager.CounterChartsCacheMisses.Inc()
		}
		return nil
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterChartsCacheHits.Inc()
	}
	log.Tracef("chart response [%s] served from cache", key)
	return cached
}

func (handler *Handler) cacheResponse(ctx context.Context, key string, response []byte) {
	if handler.redisClient == nil || handler.cacheTTL <= 0 {
		return
	}

	if err := handler.redisClient.Set(ctx, key, response, handler.cacheTTL).Err(); err != nil {
		log.Errorf("failed to cache chart response [%s]: %s", key, err)
	}
}
