package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/turtacn/SymptomSense/pkg/errors"
)

// Prediction is one ranked disease.
type Prediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Medication is one suggested medication.
type Medication struct {
	Name              string   `json:"name"`
	GenericName       string   `json:"generic_name,omitempty"`
	Dosage            string   `json:"dosage,omitempty"`
	Instructions      string   `json:"instructions,omitempty"`
	Contraindications []string `json:"contraindications,omitempty"`
}

// DiseaseRecommendation groups the medications suggested for a prediction.
type DiseaseRecommendation struct {
	Disease     string       `json:"disease"`
	Confidence  float64      `json:"confidence"`
	Medications []Medication `json:"medications"`
	Message     string       `json:"message,omitempty"`
}

// Interaction is a known interaction between two medications.
type Interaction struct {
	Medication1    string `json:"medication1"`
	Medication2    string `json:"medication2"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// AnalyzeResult is the response of Analyze.
type AnalyzeResult struct {
	Symptoms        []string                `json:"symptoms"`
	Predictions     []Prediction            `json:"predictions"`
	Recommendations []DiseaseRecommendation `json:"recommendations"`
	Interactions    []Interaction           `json:"interactions,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

// Match explains one extracted symptom.
type Match struct {
	Symptom  string  `json:"symptom"`
	Method   string  `json:"method"`
	Evidence string  `json:"evidence,omitempty"`
	Score    float64 `json:"score"`
}

// ExtractResult is the response of Extract.
type ExtractResult struct {
	Symptoms  []string `json:"symptoms"`
	Negated   []string `json:"negated"`
	Matches   []Match  `json:"matches"`
	Truncated []string `json:"truncated,omitempty"`
}

// PatientHistory is the record used to screen recommendations.
type PatientHistory struct {
	PatientID          string   `json:"patient_id"`
	Allergies          []string `json:"allergies"`
	Conditions         []string `json:"conditions"`
	CurrentMedications []string `json:"current_medications"`
}

// Liveness is the response of Health.
type Liveness struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type descriptionRequest struct {
	Description string `json:"description"`
	PatientID   string `json:"patient_id,omitempty"`
}

func checkDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.InvalidParam("description must not be empty")
	}
	return nil
}

// Analyze predicts diseases for description and returns screened medication
// suggestions.  patientID may be empty.
func (c *Client) Analyze(ctx context.Context, description, patientID string) (*AnalyzeResult, error) {
	if err := checkDescription(description); err != nil {
		return nil, err
	}
	var res AnalyzeResult
	if err := c.post(ctx, "/api/v1/symptoms/analyze", descriptionRequest{Description: description, PatientID: patientID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Extract returns the canonical symptoms found in description.
func (c *Client) Extract(ctx context.Context, description string) (*ExtractResult, error) {
	if err := checkDescription(description); err != nil {
		return nil, err
	}
	var res ExtractResult
	if err := c.post(ctx, "/api/v1/symptoms/extract", descriptionRequest{Description: description}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckInteractions screens prescribed against each other and against
// current.
func (c *Client) CheckInteractions(ctx context.Context, prescribed, current []string) ([]Interaction, error) {
	if len(prescribed) == 0 {
		return nil, errors.InvalidParam("prescribed must not be empty")
	}
	req := struct {
		Prescribed []string `json:"prescribed"`
		Current    []string `json:"current,omitempty"`
	}{prescribed, current}
	var res struct {
		Interactions []Interaction `json:"interactions"`
	}
	if err := c.post(ctx, "/api/v1/interactions/check", req, &res); err != nil {
		return nil, err
	}
	return res.Interactions, nil
}

func historyPath(patientID string) (string, error) {
	if strings.TrimSpace(patientID) == "" {
		return "", errors.InvalidParam("patientID is required")
	}
	return "/api/v1/patients/" + url.PathEscape(patientID) + "/history", nil
}

// GetPatientHistory fetches a stored history.
func (c *Client) GetPatientHistory(ctx context.Context, patientID string) (*PatientHistory, error) {
	path, err := historyPath(patientID)
	if err != nil {
		return nil, err
	}
	var h PatientHistory
	if err := c.get(ctx, path, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// PutPatientHistory replaces the history of h.PatientID.
func (c *Client) PutPatientHistory(ctx context.Context, h *PatientHistory) (*PatientHistory, error) {
	if h == nil {
		return nil, errors.InvalidParam("history is required")
	}
	path, err := historyPath(h.PatientID)
	if err != nil {
		return nil, err
	}
	body := struct {
		Allergies          []string `json:"allergies"`
		Conditions         []string `json:"conditions"`
		CurrentMedications []string `json:"current_medications"`
	}{h.Allergies, h.Conditions, h.CurrentMedications}
	var saved PatientHistory
	if err := c.put(ctx, path, body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Liveness, error) {
	var l Liveness
	if err := c.get(ctx, "/healthz", &l); err != nil {
		return nil, err
	}
	return &l, nil
}
