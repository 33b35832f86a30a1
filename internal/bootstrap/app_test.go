package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/config"
	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/testutil"
)

const testSynonyms = `
fever:
  - "fever"
  - "burning up"
cough:
  - "cough"
rash:
  - "rash"
`

func testModel() *disease.ModelArtifact {
	return &disease.ModelArtifact{
		Classifier: &disease.LogisticRegression{
			Weights:    [][]float64{{3, 3}, {0, 0}},
			Intercepts: []float64{0, 0},
		},
		FeatureNames: []string{"fever", "cough"},
		LabelNames:   []string{"flu", "cold"},
		Type:         disease.TypeLogisticRegression,
	}
}

func testCatalog() *recommendation.StaticCatalog {
	return recommendation.NewStaticCatalog(map[string][]recommendation.Medication{
		"flu": {{
			Name:         "Oseltamivir",
			GenericName:  "oseltamivir phosphate",
			Dosage:       "75 mg twice daily for flu",
			Instructions: "Start within 48 hours of flu symptoms",
		}},
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSynonyms), 0o600))

	cfg := config.NewDefaultConfig()
	cfg.Server.Mode = "test"
	cfg.Synonyms.Path = path
	cfg.Model.Eager = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "bootstrap"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, logger *testutil.MockLogger) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, Options{
		Version: "test",
		Logger:  logger,
		Catalog: testCatalog(),
		Models:  disease.NewStaticLoader(testModel()),
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_AnalyzeEndToEnd(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t), testutil.NewMockLogger())
	r := app.Router()

	w := post(r, "/api/v1/symptoms/analyze", `{"description":"I have a fever and a bad cough"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, `"symptoms":["cough","fever"]`)
	assert.Contains(t, body, `"disease":"flu"`)
	assert.Contains(t, body, "Oseltamivir")
	assert.NotContains(t, body, `"disease":"cold"`)
}

func TestNew_NegatedOnlyIsRejected(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t), testutil.NewMockLogger())

	w := post(app.Router(), "/api/v1/symptoms/analyze", `{"description":"no fever, no cough"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNew_ReportsVocabularyGaps(t *testing.T) {
	t.Parallel()
	logger := testutil.NewMockLogger()
	newTestApp(t, testConfig(t), logger)

	msg, ok := logger.Find("warn", "synonym table symptoms missing from model vocabulary")
	require.True(t, ok)
	missing, ok := msg.Field("symptoms")
	require.True(t, ok)
	assert.Equal(t, []string{"rash"}, missing)
}

func TestNew_SemanticMatchingWarning(t *testing.T) {
	t.Parallel()
	const warning = "semantic symptom matching disabled: nlp.vectors_path is not set"

	logger := testutil.NewMockLogger()
	newTestApp(t, testConfig(t), logger)
	assert.True(t, logger.HasMessage("warn", warning))

	cfg := testConfig(t)
	cfg.NLP.VectorsPath = filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(cfg.NLP.VectorsPath, []byte("fever 1 0\ncough 0 1\n"), 0o600))
	logger = testutil.NewMockLogger()
	newTestApp(t, cfg, logger)
	assert.False(t, logger.HasMessage("warn", warning))
}

func TestNew_OptionalStoresDisabled(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t), testutil.NewMockLogger())

	assert.Nil(t, app.Histories)
	assert.NotNil(t, app.Recommender)
	assert.Same(t, app.Pipeline, app.Predictor, "no cache or event layers without redis and kafka")

	checks := app.HealthCheckers()
	require.Len(t, checks, 1)
	assert.Equal(t, "model", checks[0].Name())
	assert.NoError(t, checks[0].Check(context.Background()))

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/patients/p-1/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "patient routes need postgres")
}

func TestNew_MetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t), testutil.NewMockLogger())
	r := app.Router()

	post(r, "/api/v1/symptoms/analyze", `{"description":"fever"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `bootstrap_predictions_total{outcome="ok"} 1`)
}

func TestNew_InvalidSynonymTable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Synonyms.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, Options{Logger: testutil.NewMockLogger()})
	assert.Error(t, err)
}

func TestNew_MissingCatalogFile(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Recommendation.CatalogPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(context.Background(), cfg, Options{
		Logger: testutil.NewMockLogger(),
		Models: disease.NewStaticLoader(testModel()),
	})
	assert.Error(t, err)
}

func TestNew_WithoutCatalogPredictsOnly(t *testing.T) {
	t.Parallel()
	app, err := New(context.Background(), testConfig(t), Options{
		Logger: testutil.NewMockLogger(),
		Models: disease.NewStaticLoader(testModel()),
	})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Recommender)
	res, err := app.Service.Analyze(context.Background(), &recommendation.AnalyzeRequest{Description: "fever"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fever"}, res.Symptoms)
	assert.Empty(t, res.Recommendations)
}

func TestNew_WatchedSynonymTable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Synonyms.Watch = true

	app := newTestApp(t, cfg, testutil.NewMockLogger())
	require.NotNil(t, app.watcher)
	assert.True(t, app.Tables.Table().Has("rash"))

	ctx, cancel := context.WithCancel(context.Background())
	app.Start(ctx)
	cancel()
	app.Close()
	app.Close()
}

func TestDial(t *testing.T) {
	t.Parallel()
	logger := testutil.NewMockLogger()

	calls := 0
	err := dial(context.Background(), "flaky", logger, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, logger.CountLevel("warn"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = dial(ctx, "canceled", logger, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
