package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) Analyze(ctx context.Context, req *recommendation.AnalyzeRequest) (*recommendation.AnalyzeResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*recommendation.AnalyzeResult)
	return res, args.Error(1)
}

func (m *MockService) CheckInteractions(ctx context.Context, prescribed, current []string) ([]recommendation.Interaction, error) {
	args := m.Called(ctx, prescribed, current)
	res, _ := args.Get(0).([]recommendation.Interaction)
	return res, args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, description string) (*symptom.Extraction, error) {
	args := m.Called(ctx, description)
	res, _ := args.Get(0).(*symptom.Extraction)
	return res, args.Error(1)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) FindByPatientID(ctx context.Context, id string) (*recommendation.PatientHistory, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*recommendation.PatientHistory)
	return res, args.Error(1)
}

func (m *MockHistoryStore) Save(ctx context.Context, h *recommendation.PatientHistory) error {
	return m.Called(ctx, h).Error(0)
}

type recordingObserver struct {
	severities []string
}

func (r *recordingObserver) ObserveInteraction(severity string) {
	r.severities = append(r.severities, severity)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
