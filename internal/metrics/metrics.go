// Package metrics collects Prometheus metrics for uploads, downloads, auth and sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and the session manager
type Recorder interface {
	RecordUpload(status string, bytes int64)
	RecordDownload(status string)
	RecordAuthAttempt(kind, status string)
	RecordSessionState(state string)
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	downloads     *prometheus.CounterVec
	authAttempts  *prometheus.CounterVec
	sessionStates *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_uploads_total",
			Help: "Model uploads by outcome.",
		}, []string{"status"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modelhub_upload_bytes_total",
			Help: "Bytes of model files stored.",
		}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_downloads_total",
			Help: "Recorded downloads by outcome.",
		}, []string{"status"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_auth_attempts_total",
			Help: "Login and signup attempts by outcome.",
		}, []string{"kind", "status"}),
		sessionStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_session_transitions_total",
			Help: "Session manager transitions by target state.",
		}, []string{"state"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.uploads,
		c.uploadBytes,
		c.downloads,
		c.authAttempts,
		c.sessionStates,
		c.httpDuration,
	)

	return c
}

// RecordUpload counts an upload attempt and, on success, its bytes
func (c *Collector) RecordUpload(status string, bytes int64) {
	c.uploads.WithLabelValues(status).Inc()
	if bytes > 0 {
		c.uploadBytes.Add(float64(bytes))
	}
}

// RecordDownload counts a recorded download
func (c *Collector) RecordDownload(status string) {
	c.downloads.WithLabelValues(status).Inc()
}

// RecordAuthAttempt counts a login or signup attempt
func (c *Collector) RecordAuthAttempt(kind, status string) {
	c.authAttempts.WithLabelValues(kind, status).Inc()
}

// RecordSessionState counts a session transition
func (c *Collector) RecordSessionState(state string) {
	c.sessionStates.WithLabelValues(state).Inc()
}

// ObserveHTTPRequest records request latency
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler exposes the metrics of gatherer over HTTP
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards all metrics
type Nop struct{}

func (Nop) RecordUpload(string, int64) {}
func (Nop) RecordDownload(string) {}
func (Nop) RecordAuthAttempt(string, string) {}
func (Nop) RecordSessionState(string) {}
func (Nop) ObserveHTTPRequest(string, string, int, time.Duration) {}
