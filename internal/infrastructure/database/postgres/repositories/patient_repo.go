package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// PatientHistoryRepo reads and writes patient_histories.
type PatientHistoryRepo struct {
	log      logging.Logger
	executor queryExecutor
}

func NewPatientHistoryRepo(conn *postgres.Connection, log logging.Logger) *PatientHistoryRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PatientHistoryRepo{log: log, executor: conn.DB()}
}

// FindByPatientID implements recommendation.PatientHistoryRepository.
func (r *PatientHistoryRepo) FindByPatientID(ctx context.Context, patientID string) (*recommendation.PatientHistory, error) {
	query := `
		SELECT patient_id, allergies, conditions, current_medications
		FROM patient_histories
		WHERE patient_id = $1`
	var (
		h                          recommendation.PatientHistory
		allergies, conditions, cur pq.StringArray
	)
	err := r.executor.QueryRowContext(ctx, query, patientID).Scan(&h.PatientID, &allergies, &conditions, &cur)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodePatientNotFound, "patient not found").WithDetail("patient_id=" + patientID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load patient history")
	}
	h.Allergies = nonNil(allergies)
	h.Conditions = nonNil(conditions)
	h.CurrentMedications = nonNil(cur)
	return &h, nil
}

// Save inserts or replaces a history.
func (r *PatientHistoryRepo) Save(ctx context.Context, h *recommendation.PatientHistory) error {
	if h == nil || h.PatientID == "" {
		return errors.InvalidParam("patient_id is required")
	}
	query := `
		INSERT INTO patient_histories (patient_id, allergies, conditions, current_medications, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (patient_id) DO UPDATE SET
			allergies = EXCLUDED.allergies,
			conditions = EXCLUDED.conditions,
			current_medications = EXCLUDED.current_medications,
			updated_at = NOW()`
	_, err := r.executor.ExecContext(ctx, query, h.PatientID,
		pq.Array(nonNil(h.Allergies)), pq.Array(nonNil(h.Conditions)), pq.Array(nonNil(h.CurrentMedications)))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save patient history")
	}
	return nil
}

var _ recommendation.PatientHistoryRepository = (*PatientHistoryRepo)(nil)
