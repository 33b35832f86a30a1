package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

type testLogger struct {
	count int32
}

func (l *testLogger) Debugf(string, ...interface{}) { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Infof(string, ...interface{})  { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Errorf(string, ...interface{}) { atomic.AddInt32(&l.count, 1) }

func TestNewClient(t *testing.T) {
	t.Parallel()

	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "symsense-go-sdk/")

	tests := []string{"", "ftp://invalid", "invalid-url"}
	for _, u := range tests {
		_, err := NewClient(u)
		require.Error(t, err, u)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest), u)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()
	hc := &http.Client{Timeout: time.Second}
	logger := &testLogger{}

	c, err := NewClient("https://api.example.com",
		WithHTTPClient(hc),
		WithAPIKey("secret"),
		WithLogger(logger),
		WithRetryMax(5),
		WithRetryWait(time.Second, 10*time.Second),
		WithUserAgent("custom/1.0"),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, "secret", c.apiKey)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, time.Second, c.retryWaitMin)
	assert.Equal(t, 10*time.Second, c.retryWaitMax)
	assert.Equal(t, "custom/1.0", c.userAgent)

	c, err = NewClient("https://api.example.com",
		WithHTTPClient(nil), WithLogger(nil), WithRetryMax(-1),
		WithRetryWait(2*time.Second, time.Second), WithUserAgent(""))
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, 2*time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax, "max below min is ignored")
}

func TestAnalyze(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/symptoms/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "fever and cough", body["description"])
		assert.Equal(t, "p-1", body["patient_id"])

		io.WriteString(w, `{
			"symptoms": ["cough", "fever"],
			"predictions": [{"disease": "flu", "confidence": 0.93}],
			"recommendations": [{"disease": "flu", "confidence": 0.93, "medications": [{"name": "Oseltamivir"}]}]
		}`)
	})

	res, err := c.Analyze(context.Background(), "fever and cough", "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cough", "fever"}, res.Symptoms)
	require.Len(t, res.Predictions, 1)
	assert.InDelta(t, 0.93, res.Predictions[0].Confidence, 1e-9)
	assert.Equal(t, "Oseltamivir", res.Recommendations[0].Medications[0].Name)
}

func TestAnalyze_EmptyDescription(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&calls, 1) })

	_, err := c.Analyze(context.Background(), "  ", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAnalyze_NoSymptomsIsNotRetried(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":"PRD_001","message":"no symptoms detected","request_id":"srv-1"}`)
	})

	_, err := c.Analyze(context.Background(), "I feel fine", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNoSymptoms())
	assert.False(t, apiErr.IsNoConfidentPrediction())
	assert.Equal(t, "srv-1", apiErr.RequestID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"status":"ok","version":"1.2.3","uptime":"1s"}`)
	}, WithLogger(logger))

	l, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", l.Version)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Positive(t, atomic.LoadInt32(&logger.count))
}

func TestDo_GivesUpAfterRetryMax(t *testing.T) {
	t.Parallel()
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithRetryMax(2))

	_, err := c.Health(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), apiErr.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "404 page not found")
	})

	_, err := c.GetPatientHistory(context.Background(), "p-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "404 page not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "HTTP 404")
}

func TestDo_ContextCanceled(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryWait(time.Hour, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Health(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtract(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/symptoms/extract", r.URL.Path)
		io.WriteString(w, `{"symptoms":["rash"],"negated":["fever"],"matches":[{"symptom":"rash","method":"exact","evidence":"rash","score":1}]}`)
	})

	res, err := c.Extract(context.Background(), "rash but no fever")
	require.NoError(t, err)
	assert.Equal(t, []string{"rash"}, res.Symptoms)
	assert.Equal(t, []string{"fever"}, res.Negated)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "exact", res.Matches[0].Method)
}

func TestCheckInteractions(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prescribed []string `json:"prescribed"`
			Current    []string `json:"current"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"Aspirin"}, body.Prescribed)
		assert.Equal(t, []string{"Warfarin"}, body.Current)
		io.WriteString(w, `{"interactions":[{"medication1":"Aspirin","medication2":"Warfarin","severity":"high"}]}`)
	})

	got, err := c.CheckInteractions(context.Background(), []string{"Aspirin"}, []string{"Warfarin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].Severity)

	_, err = c.CheckInteractions(context.Background(), nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestPatientHistory(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/patients/p 1/history", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			var body map[string][]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"penicillin"}, body["allergies"])
			io.WriteString(w, `{"patient_id":"p 1","allergies":["penicillin"],"conditions":[],"current_medications":[]}`)
		case http.MethodGet:
			io.WriteString(w, `{"patient_id":"p 1","allergies":["penicillin"],"conditions":["asthma"],"current_medications":[]}`)
		}
	}, WithAPIKey("k"))

	saved, err := c.PutPatientHistory(context.Background(), &PatientHistory{PatientID: "p 1", Allergies: []string{"penicillin"}})
	require.NoError(t, err)
	assert.Equal(t, "p 1", saved.PatientID)

	got, err := c.GetPatientHistory(context.Background(), "p 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"asthma"}, got.Conditions)

	_, err = c.GetPatientHistory(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	_, err = c.PutPatientHistory(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}
