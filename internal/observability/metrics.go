package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodim_requests_total",
			Help: "Total control API requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "autodim_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autodim_in_flight",
		Help: "In-flight HTTP requests",
	})
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autodim_cycles_total",
			Help: "Control-loop cycles by outcome",
		}, []string{"outcome"},
	)
	SampledBrightness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autodim_sampled_brightness",
			Help: "Smoothed page brightness per hostname",
		}, []string{"hostname"},
	)
	DimLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autodim_dim_level",
			Help: "Applied dim level per hostname",
		}, []string{"hostname"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, CyclesTotal, SampledBrightness, DimLevel)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
