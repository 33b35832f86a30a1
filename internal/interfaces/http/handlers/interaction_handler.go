package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

// InteractionCheckRequest names the medications to screen.  Pairs are drawn
// from both lists together.
type InteractionCheckRequest struct {
	Prescribed []string `json:"prescribed" binding:"required"`
	Current    []string `json:"current"`
}

type InteractionCheckResponse struct {
	Interactions []recommendation.Interaction `json:"interactions"`
}

// InteractionHandler serves drug interaction screening.
type InteractionHandler struct {
	service  recommendation.Service
	observer InteractionObserver
	timeout  time.Duration
	logger   logging.Logger
}

func NewInteractionHandler(service recommendation.Service, observer InteractionObserver, timeout time.Duration, logger logging.Logger) *InteractionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &InteractionHandler{
		service:  service,
		observer: observer,
		timeout:  timeout,
		logger:   logger.Named("interaction-handler"),
	}
}

// Check handles POST /api/v1/interactions/check.
func (h *InteractionHandler) Check(c *gin.Context) {
	var req InteractionCheckRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	ctx, cancel := withTimeout(c, h.timeout)
	defer cancel()

	found, err := h.service.CheckInteractions(ctx, req.Prescribed, req.Current)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if found == nil {
		found = []recommendation.Interaction{}
	}
	if h.observer != nil {
		for _, it := range found {
			h.observer.ObserveInteraction(it.Severity)
		}
	}
	c.JSON(http.StatusOK, InteractionCheckResponse{Interactions: found})
}
