package repository

import (
	"database/sql"
	"time"

	"tv-finder/internal/models"
)

// DiagnosticsRepository stores failed provider calls for operators
type DiagnosticsRepository struct {
	db *sql.DB
}

// NewDiagnosticsRepository creates a new DiagnosticsRepository
func NewDiagnosticsRepository(sqliteDB *SQLiteDB) *DiagnosticsRepository {
	return &DiagnosticsRepository{db: sqliteDB.db}
}

// Create inserts a record and sets its ID
func (r *DiagnosticsRepository) Create(rec *models.ProviderError) error {
	result, err := r.db.Exec(`
		INSERT INTO provider_errors (operation, message, occurred_at)
		VALUES (?, ?, ?)
	`, rec.Operation, rec.Message, rec.OccurredAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// Recent returns up to limit records, newest first
func (r *DiagnosticsRepository) Recent(limit int) ([]models.ProviderError, error) {
	rows, err := r.db.Query(`
		SELECT id, operation, message, occurred_at
		FROM provider_errors
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProviderError
	for rows.Next() {
		var rec models.ProviderError
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Message, &rec.OccurredAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteBefore removes records older than cutoff and reports how many went
func (r *DiagnosticsRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM provider_errors WHERE occurred_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
