package prometheus

import (
	"strconv"
	"time"
)

// Label values used by AppMetrics.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// AppMetrics is the SymptomSense metric set.  It satisfies the pipeline and
// cache metric sinks of the prediction package, and ObserveModelLoad
// matches the model loader's observer signature.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal     CounterVec
	HTTPRequestDuration   HistogramVec
	HTTPRequestsInFlight  GaugeVec
	HTTPResponseSizeBytes HistogramVec

	// Prediction pipeline
	PredictionsTotal   CounterVec
	PredictionDuration HistogramVec
	SymptomsDetected   HistogramVec
	TopConfidence      HistogramVec
	CacheLookupsTotal  CounterVec

	// Model artifact
	ModelLoadsTotal   CounterVec
	ModelLoadDuration HistogramVec
	ModelLoaded       GaugeVec

	InteractionsFoundTotal CounterVec
	HealthCheckStatus      GaugeVec
}

// NewAppMetrics registers every metric on c.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	sizeBuckets := []float64{128, 512, 1024, 4096, 16384, 65536, 262144, 1048576}
	countBuckets := []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 12, 16}
	ratioBuckets := []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1}

	return &AppMetrics{
		HTTPRequestsTotal:     c.RegisterCounter("http_requests_total", "HTTP requests by route and status.", "method", "path", "status_code"),
		HTTPRequestDuration:   c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", nil, "method", "path"),
		HTTPRequestsInFlight:  c.RegisterGauge("http_requests_in_flight", "HTTP requests currently being served."),
		HTTPResponseSizeBytes: c.RegisterHistogram("http_response_size_bytes", "HTTP response body size.", sizeBuckets, "method", "path"),

		PredictionsTotal:   c.RegisterCounter("predictions_total", "Prediction requests by outcome.", "outcome"),
		PredictionDuration: c.RegisterHistogram("prediction_duration_seconds", "End-to-end prediction latency.", nil, "outcome"),
		SymptomsDetected:   c.RegisterHistogram("symptoms_detected", "Symptoms extracted per description.", countBuckets),
		TopConfidence:      c.RegisterHistogram("top_prediction_confidence", "Probability of the best ranked disease.", ratioBuckets),
		CacheLookupsTotal:  c.RegisterCounter("prediction_cache_lookups_total", "Prediction cache lookups by result.", "result"),

		ModelLoadsTotal:   c.RegisterCounter("model_loads_total", "Model artifact loads by source and status.", "source", "status"),
		ModelLoadDuration: c.RegisterHistogram("model_load_duration_seconds", "Model artifact load latency.", nil, "source"),
		ModelLoaded:       c.RegisterGauge("model_loaded", "1 when a model artifact is being served."),

		InteractionsFoundTotal: c.RegisterCounter("drug_interactions_found_total", "Drug interactions reported by severity.", "severity"),

		HealthCheckStatus: c.RegisterGauge("health_check_status", "1 when the dependency is healthy.", "component"),
	}
}

// ObservePrediction records one pipeline run.
func (m *AppMetrics) ObservePrediction(outcome string, d time.Duration) {
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
	m.PredictionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *AppMetrics) ObserveSymptoms(n int) {
	m.SymptomsDetected.WithLabelValues().Observe(float64(n))
}

func (m *AppMetrics) ObserveTopConfidence(p float64) {
	m.TopConfidence.WithLabelValues().Observe(p)
}

func (m *AppMetrics) ObserveCacheLookup(hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveModelLoad records a load attempt.  A successful load sets
// ModelLoaded; a failure leaves it untouched because the previous
// artifact, if any, is still served.
func (m *AppMetrics) ObserveModelLoad(source string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.ModelLoadsTotal.WithLabelValues(source, status).Inc()
	m.ModelLoadDuration.WithLabelValues(source).Observe(d.Seconds())
	if err == nil {
		m.ModelLoaded.WithLabelValues().Set(1)
	}
}

// ObserveInteraction counts one reported drug interaction.
func (m *AppMetrics) ObserveInteraction(severity string) {
	if severity == "" {
		severity = "unknown"
	}
	m.InteractionsFoundTotal.WithLabelValues(severity).Inc()
}

// SetComponentHealth publishes a readiness probe result.
func (m *AppMetrics) SetComponentHealth(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordHTTPRequest records a finished HTTP request.  path must be the
// route template, not the raw URL, to bound label cardinality.
func RecordHTTPRequest(m *AppMetrics, method, path string, status int, d time.Duration, respSize int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	if respSize >= 0 {
		m.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(respSize))
	}
}
