package recommendation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/application/prediction"
	"github.com/turtacn/SymptomSense/internal/intelligence/disease"
	"github.com/turtacn/SymptomSense/internal/testutil"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) PredictFromText(ctx context.Context, description string) (*prediction.Result, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prediction.Result), args.Error(1)
}

type MockHistories struct {
	mock.Mock
}

func (m *MockHistories) FindByPatientID(ctx context.Context, patientID string) (*PatientHistory, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PatientHistory), args.Error(1)
}

func fluPrediction() *prediction.Result {
	return &prediction.Result{
		Symptoms: []string{"cough", "fever"},
		Predictions: []disease.Prediction{
			{Disease: "Influenza", Probability: 0.7},
			{Disease: "Bronchitis", Probability: 0.2},
		},
	}
}

func testCatalog() *StaticCatalog {
	return NewStaticCatalog(map[string][]Medication{
		"Influenza": {
			{Name: "Penicillin V", GenericName: "phenoxymethylpenicillin", Dosage: "250mg", Instructions: "influenza complications"},
			{Name: "Tamiflu", GenericName: "oseltamivir", Dosage: "75mg", Instructions: "influenza"},
		},
	})
}

func TestService_Analyze(t *testing.T) {
	t.Parallel()

	pred := new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, "fever and cough").Return(fluPrediction(), nil)
	hist := new(MockHistories)
	hist.On("FindByPatientID", mock.Anything, "p1").Return(&PatientHistory{
		PatientID:          "p1",
		Allergies:          []string{"penicillin"},
		CurrentMedications: []string{"Warfarin"},
	}, nil)
	interactions := NewStaticInteractions(Interaction{Medication1: "tamiflu", Medication2: "warfarin", Severity: "moderate"})

	svc := NewService(pred, NewRecommender(testCatalog(), interactions, Config{}, nil), hist, nil)
	res, err := svc.Analyze(context.Background(), &AnalyzeRequest{Description: "fever and cough", PatientID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cough", "fever"}, res.Symptoms)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "Influenza", res.Recommendations[0].Disease)
	assert.Equal(t, 0.7, res.Recommendations[0].Confidence)
	assert.Equal(t, []string{"Tamiflu"}, names(res.Recommendations[0].Medications))
	assert.Empty(t, res.Recommendations[0].Message)
	assert.Empty(t, res.Recommendations[1].Medications)
	assert.Equal(t, NoMedicationsMessage, res.Recommendations[1].Message)

	require.Len(t, res.Interactions, 1)
	assert.Equal(t, "Tamiflu", res.Interactions[0].Medication1)
	assert.Equal(t, "Warfarin", res.Interactions[0].Medication2)
}

func TestService_AnalyzeUnknownPatient(t *testing.T) {
	t.Parallel()

	pred := new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, mock.Anything).Return(fluPrediction(), nil)
	hist := new(MockHistories)
	hist.On("FindByPatientID", mock.Anything, "ghost").Return(nil, errors.New(errors.ErrCodePatientNotFound, "no such patient"))
	logger := testutil.NewMockLogger()

	svc := NewService(pred, NewRecommender(testCatalog(), nil, Config{}, nil), hist, logger)
	res, err := svc.Analyze(context.Background(), &AnalyzeRequest{Description: "fever", PatientID: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Penicillin V", "Tamiflu"}, names(res.Recommendations[0].Medications))
	assert.True(t, logger.HasMessage("info", "patient record not found"))
}

func TestService_AnalyzeErrors(t *testing.T) {
	t.Parallel()

	pred := new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, "").Return(nil, errors.New(errors.ErrCodeNoSymptomsDetected, "none"))
	svc := NewService(pred, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{})
	assert.True(t, errors.IsNoSymptomsDetected(err))

	_, err = svc.Analyze(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	pred = new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, mock.Anything).Return(fluPrediction(), nil)
	hist := new(MockHistories)
	hist.On("FindByPatientID", mock.Anything, "p1").Return(nil, errors.New(errors.ErrCodeDatabaseError, "connection reset"))
	svc = NewService(pred, NewRecommender(testCatalog(), nil, Config{}, nil), hist, nil)
	_, err = svc.Analyze(context.Background(), &AnalyzeRequest{Description: "fever", PatientID: "p1"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError), "history failures are not treated as an empty history")
}

func TestService_AnalyzeWithoutRecommender(t *testing.T) {
	t.Parallel()

	pred := new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, mock.Anything).Return(fluPrediction(), nil)

	res, err := NewService(pred, nil, nil, nil).Analyze(context.Background(), &AnalyzeRequest{Description: "fever"})
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 2)
	assert.Empty(t, res.Recommendations)
}

func TestService_InteractionFailureIsAWarning(t *testing.T) {
	t.Parallel()

	pred := new(MockPredictor)
	pred.On("PredictFromText", mock.Anything, mock.Anything).Return(fluPrediction(), nil)
	hist := new(MockHistories)
	hist.On("FindByPatientID", mock.Anything, "p1").Return(&PatientHistory{CurrentMedications: []string{"Warfarin"}}, nil)
	repo := new(MockInteractions)
	repo.On("FindInteraction", mock.Anything, mock.Anything, mock.Anything).Return(nil, false, assert.AnError)

	svc := NewService(pred, NewRecommender(testCatalog(), repo, Config{}, nil), hist, nil)
	res, err := svc.Analyze(context.Background(), &AnalyzeRequest{Description: "fever", PatientID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, res.Interactions)
	assert.Equal(t, []string{errors.DefaultMessageForCode(errors.ErrCodeInteractionLookup)}, res.Warnings)
}

func TestService_CheckInteractions(t *testing.T) {
	t.Parallel()

	store := NewStaticInteractions(Interaction{Medication1: "a", Medication2: "b", Severity: "low"})
	svc := NewService(nil, NewRecommender(NewStaticCatalog(nil), store, Config{}, nil), nil, nil)

	got, err := svc.CheckInteractions(context.Background(), []string{"A"}, []string{"B"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.CheckInteractions(context.Background(), []string{"A"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = NewService(nil, nil, nil, nil).CheckInteractions(context.Background(), []string{"A", "B"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}
