package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	actions          *CounterVec
	actionLatency    *HistogramVec
	quizSubmissions  *CounterVec
	moduleCompletion *CounterVec
	pointsAwarded    *Counter

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	dbStats     *GaugeVec
	redisUp     *GaugeVec
	redisPingMS *GaugeVec

	collectors []collector
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry once. It returns nil when metrics are
// disabled; every Metrics method is safe on a nil receiver.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() { instance = New() })
	return instance
}

func Current() *Metrics { return instance }

// New builds a standalone registry. Tests use it directly.
func New() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("api_requests_total", "API requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("api_request_duration_seconds", "API latency by method and route.", []string{"method", "route"}, nil),
		apiInflight: NewGaugeVec("api_inflight_requests", "In-flight API requests.", nil),

		actions:          NewCounterVec("progression_actions_total", "Session actions by action and status.", []string{"action", "status"}),
		actionLatency:    NewHistogramVec("progression_action_duration_seconds", "Session action latency.", []string{"action"}, nil),
		quizSubmissions:  NewCounterVec("progression_quiz_submissions_total", "Graded quiz submissions by result.", []string{"result"}),
		moduleCompletion: NewCounterVec("progression_module_completions_total", "Module completion attempts by outcome.", []string{"outcome"}),
		pointsAwarded:    NewCounter("progression_points_awarded_total", "Points written to the reward ledger."),

		aggregateOps:       NewCounterVec("progress_store_operations_total", "Progress store writes by op and status.", []string{"op", "status"}),
		aggregateLatency:   NewHistogramVec("progress_store_operation_duration_seconds", "Progress store write latency.", []string{"op"}, nil),
		aggregateConflicts: NewCounterVec("progress_store_conflicts_total", "Progress store write conflicts.", []string{"op"}),
		aggregateRetries:   NewCounterVec("progress_store_retryable_total", "Progress store retryable write failures.", []string{"op"}),

		dbStats:     NewGaugeVec("db_pool_stats", "database/sql pool stats.", []string{"stat"}),
		redisUp:     NewGaugeVec("redis_up", "1 when the last redis ping succeeded.", nil),
		redisPingMS: NewGaugeVec("redis_ping_milliseconds", "Last redis ping latency.", nil),
	}
	m.collectors = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.actions, m.actionLatency, m.quizSubmissions, m.moduleCompletion, m.pointsAwarded,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.dbStats, m.redisUp, m.redisPingMS,
	}
	return m
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// API

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

// Progression engine

func (m *Metrics) ObserveAction(action, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.actions.Inc(action, status)
	m.actionLatency.Observe(dur.Seconds(), action)
}

func (m *Metrics) IncQuizSubmission(result string) {
	if m != nil {
		m.quizSubmissions.Inc(result)
	}
}

func (m *Metrics) IncModuleCompletion(outcome string) {
	if m != nil {
		m.moduleCompletion.Inc(outcome)
	}
}

func (m *Metrics) AddPointsAwarded(points int) {
	if m != nil && points > 0 {
		m.pointsAwarded.Add(float64(points))
	}
}

// Storage aggregates

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(strings.TrimSpace(op), strings.TrimSpace(status))
	m.aggregateLatency.Observe(dur.Seconds(), strings.TrimSpace(op))
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m != nil {
		m.aggregateConflicts.Inc(strings.TrimSpace(op))
	}
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m != nil {
		m.aggregateRetries.Inc(strings.TrimSpace(op))
	}
}

// Collectors

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	go tick(ctx, interval, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: db stats unavailable", "error", err)
			}
			return
		}
		s := sqlDB.Stats()
		m.dbStats.Set(float64(s.OpenConnections), "open_connections")
		m.dbStats.Set(float64(s.InUse), "in_use")
		m.dbStats.Set(float64(s.Idle), "idle")
		m.dbStats.Set(float64(s.WaitCount), "wait_count")
		m.dbStats.Set(s.WaitDuration.Seconds(), "wait_duration_seconds")
	})
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	go tick(ctx, interval, func() {
		start := time.Now()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPingMS.Set(float64(time.Since(start).Microseconds()) / 1000)
	})
}

func tick(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
