package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/intelligence/symptom"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

// SymptomAnalyzer explains an extraction without predicting.
type SymptomAnalyzer interface {
	Analyze(ctx context.Context, description string) (*symptom.Extraction, error)
}

// InteractionObserver counts reported interactions.
type InteractionObserver interface {
	ObserveInteraction(severity string)
}

// DescriptionRequest is the body of both symptom endpoints.
type DescriptionRequest struct {
	Description string `json:"description" binding:"required"`
	// PatientID is optional and only read by analyze.
	PatientID string `json:"patient_id"`
}

// ExtractResponse is the body returned by POST /symptoms/extract.
type ExtractResponse struct {
	Symptoms  []string        `json:"symptoms"`
	Negated   []string        `json:"negated"`
	Matches   []symptom.Match `json:"matches"`
	Truncated []string        `json:"truncated,omitempty"`
}

// SymptomHandler serves symptom analysis.
type SymptomHandler struct {
	service   recommendation.Service
	extractor SymptomAnalyzer
	observer  InteractionObserver
	timeout   time.Duration
	logger    logging.Logger
}

// NewSymptomHandler creates a SymptomHandler.  observer may be nil and a
// zero timeout leaves request contexts unbounded.
func NewSymptomHandler(service recommendation.Service, extractor SymptomAnalyzer, observer InteractionObserver, timeout time.Duration, logger logging.Logger) *SymptomHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SymptomHandler{
		service:   service,
		extractor: extractor,
		observer:  observer,
		timeout:   timeout,
		logger:    logger.Named("symptom-handler"),
	}
}

// Analyze handles POST /api/v1/symptoms/analyze.
func (h *SymptomHandler) Analyze(c *gin.Context) {
	var req DescriptionRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	res, err := h.service.Analyze(ctx, &recommendation.AnalyzeRequest{
		Description: req.Description,
		PatientID:   req.PatientID,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if h.observer != nil {
		for _, it := range res.Interactions {
			h.observer.ObserveInteraction(it.Severity)
		}
	}
	c.JSON(http.StatusOK, res)
}

// Extract handles POST /api/v1/symptoms/extract.
func (h *SymptomHandler) Extract(c *gin.Context) {
	var req DescriptionRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	ext, err := h.extractor.Analyze(ctx, req.Description)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ExtractResponse{
		Symptoms:  ext.Symptoms.Sorted(),
		Negated:   ext.Negated,
		Matches:   orEmptyMatches(ext.Matches),
		Truncated: ext.Truncated,
	})
}

func orEmptyMatches(m []symptom.Match) []symptom.Match {
	if m == nil {
		return []symptom.Match{}
	}
	return m
}
