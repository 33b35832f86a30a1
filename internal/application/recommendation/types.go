// Package recommendation suggests medications for predicted diseases and
// screens them against the patient's recorded allergies, conditions and
// current medications.
package recommendation

import "context"

// Medication is one catalog entry.
type Medication struct {
	Name              string   `json:"name"`
	GenericName       string   `json:"generic_name,omitempty"`
	Dosage            string   `json:"dosage,omitempty"`
	Instructions      string   `json:"instructions,omitempty"`
	Contraindications []string `json:"contraindications,omitempty"`
}

// PatientHistory is the part of a patient record that affects
// recommendations.
type PatientHistory struct {
	PatientID          string   `json:"patient_id"`
	Allergies          []string `json:"allergies"`
	Conditions         []string `json:"conditions"`
	CurrentMedications []string `json:"current_medications"`
}

// Interaction describes a known interaction between two medications.
type Interaction struct {
	Medication1    string `json:"medication1"`
	Medication2    string `json:"medication2"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// MedicationCatalog lists medications per disease.
type MedicationCatalog interface {
	// Diseases returns every disease name in the catalog.
	Diseases(ctx context.Context) ([]string, error)
	// MedicationsFor returns the medications of one catalog disease in
	// catalog order.
	MedicationsFor(ctx context.Context, disease string) ([]Medication, error)
}

// PatientHistoryRepository loads patient histories.  A missing patient is
// reported with ErrCodePatientNotFound.
type PatientHistoryRepository interface {
	FindByPatientID(ctx context.Context, patientID string) (*PatientHistory, error)
}

// InteractionRepository looks up a single medication pair.  The pair is
// unordered; found is false when no interaction is recorded.
type InteractionRepository interface {
	FindInteraction(ctx context.Context, a, b string) (interaction *Interaction, found bool, err error)
}
