package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

func TestInteractionHandler_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setup      func(m *MockService)
		wantStatus int
		wantBody   string
		wantSeen   []string
	}{
		{
			name: "interactions found",
			body: `{"prescribed":["Aspirin"],"current":["Warfarin"]}`,
			setup: func(m *MockService) {
				m.On("CheckInteractions", mock.Anything, []string{"Aspirin"}, []string{"Warfarin"}).
					Return([]recommendation.Interaction{{
						Medication1:    "Aspirin",
						Medication2:    "Warfarin",
						Severity:       "major",
						Description:    "bleeding risk",
						Recommendation: "avoid",
					}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"interactions":[{"medication1":"Aspirin","medication2":"Warfarin","severity":"major","description":"bleeding risk","recommendation":"avoid"}]}`,
			wantSeen:   []string{"major"},
		},
		{
			name: "none found",
			body: `{"prescribed":["Aspirin","Ibuprofen"]}`,
			setup: func(m *MockService) {
				m.On("CheckInteractions", mock.Anything, []string{"Aspirin", "Ibuprofen"}, []string(nil)).
					Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"interactions":[]}`,
		},
		{
			name: "too few medications",
			body: `{"prescribed":["Aspirin"]}`,
			setup: func(m *MockService) {
				m.On("CheckInteractions", mock.Anything, []string{"Aspirin"}, []string(nil)).
					Return(nil, apperrors.InvalidParam("at least two medications are required"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"COMMON_002","message":"at least two medications are required","request_id":"req-1"}`,
		},
		{
			name: "lookup failure",
			body: `{"prescribed":["Aspirin"],"current":["Warfarin"]}`,
			setup: func(m *MockService) {
				m.On("CheckInteractions", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, apperrors.New(apperrors.ErrCodeInteractionLookup, "drug interaction lookup failed"))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"code":"REC_003","message":"drug interaction lookup failed","request_id":"req-1"}`,
		},
		{
			name:       "missing prescribed",
			body:       `{"current":["Warfarin"]}`,
			setup:      func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := new(MockService)
			tt.setup(svc)
			obs := &recordingObserver{}
			h := NewInteractionHandler(svc, obs, 0, nil)

			r := newEngine()
			r.POST("/check", h.Check)
			w := doJSON(r, http.MethodPost, "/check", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			assert.Equal(t, tt.wantSeen, obs.severities)
			svc.AssertExpectations(t)
		})
	}
}
