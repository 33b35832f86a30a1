package recommendation

import (
	"context"
	"errors"

	"github.com/turtacn/SymptomSense/internal/application/prediction"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

// NoMedicationsMessage accompanies a disease with no suitable medication.
const NoMedicationsMessage = "No medication recommendations found for this disease. Please consult a healthcare professional for further evaluation."

// Service defines the application operations behind the analyze endpoint.
type Service interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error)
	CheckInteractions(ctx context.Context, prescribed, current []string) ([]Interaction, error)
}

// AnalyzeRequest is the input of Analyze.
type AnalyzeRequest struct {
	Description string
	// PatientID is optional.  Without it no history screening is applied.
	PatientID string
}

// DiseaseRecommendation groups the medications suggested for one
// prediction.
type DiseaseRecommendation struct {
	Disease     string       `json:"disease"`
	Confidence  float64      `json:"confidence"`
	Medications []Medication `json:"medications"`
	Message     string       `json:"message,omitempty"`
}

// AnalyzeResult is the output of Analyze.
type AnalyzeResult struct {
	*prediction.Result
	Recommendations []DiseaseRecommendation `json:"recommendations"`
	Interactions    []Interaction           `json:"interactions,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

type serviceImpl struct {
	predictor   prediction.Predictor
	recommender *Recommender
	histories   PatientHistoryRepository
	logger      logging.Logger
}

// NewService wires the service.  recommender and histories may be nil, in
// which case Analyze returns predictions only or skips history screening.
func NewService(predictor prediction.Predictor, recommender *Recommender, histories PatientHistoryRepository, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		predictor:   predictor,
		recommender: recommender,
		histories:   histories,
		logger:      logger.Named("recommendation"),
	}
}

func (s *serviceImpl) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	if req == nil {
		return nil, apperrors.InvalidParam("request is required")
	}

	res, err := s.predictor.PredictFromText(ctx, req.Description)
	if err != nil {
		return nil, err
	}
	out := &AnalyzeResult{Result: res, Recommendations: []DiseaseRecommendation{}}
	if s.recommender == nil {
		return out, nil
	}

	history, err := s.history(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, pred := range res.Predictions {
		meds, err := s.recommender.Recommend(ctx, pred.Disease, history)
		if err != nil {
			return nil, err
		}
		rec := DiseaseRecommendation{Disease: pred.Disease, Confidence: pred.Probability, Medications: meds}
		if len(meds) == 0 {
			rec.Medications = []Medication{}
			rec.Message = NoMedicationsMessage
		}
		for _, m := range meds {
			names = append(names, m.Name)
		}
		out.Recommendations = append(out.Recommendations, rec)
	}

	if history != nil && len(history.CurrentMedications) > 0 && len(names) > 0 {
		interactions, err := s.recommender.CheckInteractions(ctx, names, history.CurrentMedications)
		switch {
		case err == nil:
			out.Interactions = interactions
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			s.logger.Warn("interaction check failed", logging.Err(err))
			out.Warnings = append(out.Warnings, apperrors.DefaultMessageForCode(apperrors.ErrCodeInteractionLookup))
		}
	}
	return out, nil
}

// history returns nil for anonymous requests and unknown patients.
func (s *serviceImpl) history(ctx context.Context, patientID string) (*PatientHistory, error) {
	if patientID == "" || s.histories == nil {
		return nil, nil
	}
	h, err := s.histories.FindByPatientID(ctx, patientID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodePatientNotFound) {
			s.logger.Info("patient record not found", logging.String("patient_id", patientID))
			return nil, nil
		}
		return nil, err
	}
	return h, nil
}

func (s *serviceImpl) CheckInteractions(ctx context.Context, prescribed, current []string) ([]Interaction, error) {
	if len(prescribed)+len(current) < 2 {
		return nil, apperrors.InvalidParam("at least two medications are required")
	}
	if s.recommender == nil {
		return nil, apperrors.New(apperrors.ErrCodeServiceUnavailable, "interaction checking is not configured")
	}
	return s.recommender.CheckInteractions(ctx, prescribed, current)
}
