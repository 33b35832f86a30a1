package repositories

import (
	"context"

	"github.com/lib/pq"

	"github.com/turtacn/SymptomSense/internal/application/recommendation"
	"github.com/turtacn/SymptomSense/internal/infrastructure/database/postgres"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// MedicationRepo serves the medication catalog from the medications table.
type MedicationRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

func NewMedicationRepo(conn *postgres.Connection, log logging.Logger) *MedicationRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MedicationRepo{conn: conn, log: log, executor: conn.DB()}
}

// Diseases implements recommendation.MedicationCatalog.
func (r *MedicationRepo) Diseases(ctx context.Context) ([]string, error) {
	rows, err := r.executor.QueryContext(ctx, `SELECT DISTINCT disease FROM medications ORDER BY disease`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to list catalog diseases")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to scan disease")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to list catalog diseases")
	}
	return out, nil
}

// MedicationsFor implements recommendation.MedicationCatalog.  Rows come
// back in insertion order.
func (r *MedicationRepo) MedicationsFor(ctx context.Context, disease string) ([]recommendation.Medication, error) {
	query := `
		SELECT name, generic_name, dosage, instructions, contraindications
		FROM medications
		WHERE disease = $1
		ORDER BY id`
	rows, err := r.executor.QueryContext(ctx, query, disease)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to query medications").WithDetail("disease=" + disease)
	}
	defer rows.Close()

	var out []recommendation.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to query medications")
	}
	return out, nil
}

func scanMedication(row scanner) (*recommendation.Medication, error) {
	var m recommendation.Medication
	var contra pq.StringArray
	if err := row.Scan(&m.Name, &m.GenericName, &m.Dosage, &m.Instructions, &contra); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogUnavailable, "failed to scan medication")
	}
	if len(contra) > 0 {
		m.Contraindications = []string(contra)
	}
	return &m, nil
}

// Import copies every entry of src into the table inside one transaction.
// Existing (disease, name) rows are updated.
func (r *MedicationRepo) Import(ctx context.Context, src recommendation.MedicationCatalog) (int, error) {
	diseases, err := src.Diseases(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	txRepo := &MedicationRepo{conn: r.conn, log: r.log, executor: tx}

	n := 0
	for _, d := range diseases {
		meds, err := src.MedicationsFor(ctx, d)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		for _, m := range meds {
			if err := txRepo.upsert(ctx, d, m); err != nil {
				_ = tx.Rollback()
				return 0, err
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	r.log.Info("medication catalog imported", logging.Int("diseases", len(diseases)), logging.Int("medications", n))
	return n, nil
}

func (r *MedicationRepo) upsert(ctx context.Context, disease string, m recommendation.Medication) error {
	query := `
		INSERT INTO medications (disease, name, generic_name, dosage, instructions, contraindications)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (disease, name) DO UPDATE SET
			generic_name = EXCLUDED.generic_name,
			dosage = EXCLUDED.dosage,
			instructions = EXCLUDED.instructions,
			contraindications = EXCLUDED.contraindications`
	_, err := r.executor.ExecContext(ctx, query,
		disease, m.Name, m.GenericName, m.Dosage, m.Instructions, pq.Array(nonNil(m.Contraindications)))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert medication").WithDetailf("disease=%s name=%s", disease, m.Name)
	}
	return nil
}

var _ recommendation.MedicationCatalog = (*MedicationRepo)(nil)
