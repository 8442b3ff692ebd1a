package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	noticesSent     *prometheus.CounterVec
	repliesSent     *prometheus.CounterVec
	fanoutSize      prometheus.Histogram
}

// NewMetricsService registers the API's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	noticesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notices_sent_total",
		Help: "Total notices published, labelled by notice type",
	}, []string{"notice_type"})

	repliesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replies_sent_total",
		Help: "Total replies posted, labelled by reply type",
	}, []string{"reply_type"})

	fanoutSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reply_fanout_recipients",
		Help:    "Recipient count per reply fan-out",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, noticesSent, repliesSent, fanoutSize, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		noticesSent:     noticesSent,
		repliesSent:     repliesSent,
		fanoutSize:      fanoutSize,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordNoticeSent counts a published notice.
func (m *MetricsService) RecordNoticeSent(noticeType string) {
	if m == nil {
		return
	}
	m.noticesSent.WithLabelValues(noticeType).Inc()
}

// RecordReplyFanout counts a posted reply and its recipient spread.
func (m *MetricsService) RecordReplyFanout(replyType string, recipients int) {
	if m == nil {
		return
	}
	m.repliesSent.WithLabelValues(replyType).Inc()
	m.fanoutSize.Observe(float64(recipients))
}
