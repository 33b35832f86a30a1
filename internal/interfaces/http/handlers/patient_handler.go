package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

// PatientHistoryStore reads and writes patient histories.
type PatientHistoryStore interface {
	FindByPatientID(ctx context.Context, patientID string) (*recommendation.PatientHistory, error)
	Save(ctx context.Context, h *recommendation.PatientHistory) error
}

// PatientHistoryRequest is the body of PUT /patients/:id/history.
type PatientHistoryRequest struct {
	Allergies          []string `json:"allergies"`
	Conditions         []string `json:"conditions"`
	CurrentMedications []string `json:"current_medications"`
}

// PatientHandler exposes the histories used to screen recommendations.
type PatientHandler struct {
	store  PatientHistoryStore
	logger logging.Logger
}

func NewPatientHandler(store PatientHistoryStore, logger logging.Logger) *PatientHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PatientHandler{store: store, logger: logger.Named("patient-handler")}
}

// GetHistory handles GET /api/v1/patients/:id/history.
func (h *PatientHandler) GetHistory(c *gin.Context) {
	hist, err := h.store.FindByPatientID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// PutHistory handles PUT /api/v1/patients/:id/history.  The stored record
// is replaced.
func (h *PatientHandler) PutHistory(c *gin.Context) {
	var req PatientHistoryRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	hist := &recommendation.PatientHistory{
		PatientID:          c.Param("id"),
		Allergies:          nonNilStrings(req.Allergies),
		Conditions:         nonNilStrings(req.Conditions),
		CurrentMedications: nonNilStrings(req.CurrentMedications),
	}
	if err := h.store.Save(c.Request.Context(), hist); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Info("patient history saved", logging.String("patient_id", hist.PatientID))
	c.JSON(http.StatusOK, hist)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
