// Package observability holds Prometheus collectors and OpenTelemetry setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// SignupsTotal counts signup attempts by outcome.
	SignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Signup attempts by result",
	}, []string{"result"})

	// LoginsTotal counts credential checks by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	// MessagesPosted counts messages created.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_messages_posted_total",
		Help: "Total number of messages posted",
	})

	// GraphChanges counts follow graph and like mutations.
	GraphChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_graph_changes_total",
		Help: "Follow and like mutations by kind",
	}, []string{"kind"})

	// FeedConnections is the number of open live feed websockets.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warbler_feed_connections",
		Help: "Number of open live feed WebSocket connections",
	})

	// FeedDrops counts feed events dropped because a client could not keep up.
	FeedDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_feed_backpressure_drops_total",
		Help: "Feed events dropped due to slow clients",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warbler_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "warbler:query_start"

// RegisterQueryMetrics hooks gorm callbacks so every statement feeds DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op  string
		reg func(string, func(*gorm.DB)) error
		aft func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.reg("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.aft("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
