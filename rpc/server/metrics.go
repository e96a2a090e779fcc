package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ValentinKolb/poolfs/lib/pool"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var metricsLogger = logger.GetLogger("metrics")

// Metrics collects the connection metrics of one server in its own metrics.Set.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	set          *metrics.Set
	poolName     string
	duration     *metrics.Histogram
	acceptErrors *metrics.Counter
}

// NewMetrics creates the metric set for a server running the named pool backend
func NewMetrics(poolName string) *Metrics {
	set := metrics.NewSet()
	return &Metrics{
		set:          set,
		poolName:     poolName,
		duration:     set.NewHistogram(fmt.Sprintf(`poolfs_connection_duration_seconds{pool=%q}`, poolName)),
		acceptErrors: set.NewCounter(`poolfs_accept_errors_total`),
	}
}

// ObserveConnection records one finished connection, it matches pool.Options.OnDone
func (m *Metrics) ObserveConnection(outcome pool.Outcome, took time.Duration) {
	if m == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`poolfs_connections_total{pool=%q,outcome=%q}`, m.poolName, outcome)).Inc()
	m.duration.Update(took.Seconds())
}

// TrackPool exports the size and the number of busy workers of p
func (m *Metrics) TrackPool(p pool.IWorkerPool) {
	if m == nil || p == nil {
		return
	}
	m.set.GetOrCreateGauge(fmt.Sprintf(`poolfs_pool_busy_workers{pool=%q}`, m.poolName), func() float64 {
		return float64(p.Busy())
	})
	m.set.GetOrCreateGauge(fmt.Sprintf(`poolfs_pool_size{pool=%q}`, m.poolName), func() float64 {
		return float64(p.Size())
	})
}

func (m *Metrics) acceptError() {
	if m == nil {
		return
	}
	m.acceptErrors.Inc()
}

// WritePrometheus writes the server metrics and the process metrics in Prometheus text format
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// serve starts the /metrics endpoint in the background
func (m *Metrics) serve(endpoint string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.WritePrometheus(w)
	})

	srv := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		metricsLogger.Infof("serving metrics on http://%s/metrics", endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsLogger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
	return srv
}

// shutdownMetrics stops a metrics endpoint started by serve
func shutdownMetrics(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
