package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	providerRequests *CounterVec
	providerLatency  *HistogramVec

	transcriptions        *CounterVec
	transcriptionDuration *HistogramVec
	artefactTransitions   *CounterVec

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process metrics, or nil when metrics are disabled. All
// Metrics methods are nil-safe.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("md_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"md_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 120, 300},
		),
		apiInflight:      NewGauge("md_api_inflight_requests", "In-flight API requests."),
		providerRequests: NewCounterVec("md_provider_requests_total", "Transcription provider calls by provider/op/status.", []string{"provider", "op", "status"}),
		providerLatency: NewHistogramVec(
			"md_provider_request_duration_seconds",
			"Transcription provider call latency by provider/op.",
			[]string{"provider", "op"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		transcriptions: NewCounterVec("md_transcriptions_total", "Finished transcription runs by provider/status.", []string{"provider", "status"}),
		transcriptionDuration: NewHistogramVec(
			"md_transcription_duration_seconds",
			"Wall time from queued to done/error by provider.",
			[]string{"provider"},
			[]float64{5, 10, 30, 60, 120, 180, 300, 600},
		),
		artefactTransitions: NewCounterVec("md_artefact_status_transitions_total", "Artefact status transitions by type/status.", []string{"type", "status"}),
		llmRequests:         NewCounterVec("md_llm_requests_total", "LLM requests by model/status.", []string{"model", "status"}),
		llmLatency: NewHistogramVec(
			"md_llm_request_duration_seconds",
			"LLM request latency by model.",
			[]string{"model"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		dbStats:   NewGaugeVec("md_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp:   NewGauge("md_redis_up", "Redis reachability (1 = up)."),
		redisPing: NewGauge("md_redis_ping_seconds", "Last redis ping latency in seconds."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.providerRequests, m.providerLatency,
		m.transcriptions, m.transcriptionDuration, m.artefactTransitions,
		m.llmRequests, m.llmLatency,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orDefault(method, "UNKNOWN")
	route = orDefault(route, "unknown")
	status = orDefault(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveProviderRequest(provider, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orDefault(provider, "unknown")
	op = orDefault(op, "unknown")
	m.providerRequests.Inc(provider, op, orDefault(status, "0"))
	if dur > 0 {
		m.providerLatency.Observe(dur.Seconds(), provider, op)
	}
}

func (m *Metrics) ObserveTranscription(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orDefault(provider, "unknown")
	m.transcriptions.Inc(provider, orDefault(status, "unknown"))
	if dur > 0 {
		m.transcriptionDuration.Observe(dur.Seconds(), provider)
	}
}

func (m *Metrics) IncArtefactTransition(artefactType, status string) {
	if m == nil {
		return
	}
	m.artefactTransitions.Inc(orDefault(artefactType, "unknown"), orDefault(status, "unknown"))
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	model = orDefault(model, "unknown")
	m.llmRequests.Inc(model, orDefault(status, "0"))
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model)
	}
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db handle unavailable", "error", err)
		}
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
