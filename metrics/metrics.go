package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's collectors. Each server gets its own so tests
// never collide on the global registerer.
type Registry struct {
	reg *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	providerCalls   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypal_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantrypal_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypal_provider_requests_total",
			Help: "Recipe provider calls by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypal_discovery_cache_lookups_total",
			Help: "Discovery cache lookups by result.",
		}, []string{"result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantrypal_mutations_total",
			Help: "Stored document mutations by entity and action.",
		}, []string{"entity", "action"}),
	}
	r.reg.MustRegister(
		r.requests,
		r.requestDuration,
		r.providerCalls,
		r.cacheLookups,
		r.mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) ProviderCall(outcome string) {
	if r == nil {
		return
	}
	r.providerCalls.WithLabelValues(outcome).Inc()
}

func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Registry) Mutation(entity, action string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(entity, action).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() httprouter.Handle {
	h := promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, req)
	}
}

// Instrument records count and latency for one route.
func (r *Registry) Instrument(route string, next httprouter.Handle) httprouter.Handle {
	if r == nil {
		return next
	}
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, req, ps)
		r.requests.WithLabelValues(route, req.Method, strconv.Itoa(sw.status)).Inc()
		r.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
