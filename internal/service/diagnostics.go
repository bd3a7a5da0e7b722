package service

import (
	"fmt"
	"log"
	"time"

	"tv-finder/internal/models"
	"tv-finder/internal/repository"
)

// Diagnostics records provider failures: a log line, a stored row and an
// optional operator alert. Errors on this path are logged, never returned.
type Diagnostics struct {
	repo    *repository.DiagnosticsRepository
	alerter Alerter
	now     func() time.Time
}

// NewDiagnostics creates a new Diagnostics. repo and alerter may be nil.
func NewDiagnostics(repo *repository.DiagnosticsRepository, alerter Alerter) *Diagnostics {
	return &Diagnostics{
		repo:    repo,
		alerter: alerter,
		now:     time.Now,
	}
}

// Record implements FailureRecorder
func (d *Diagnostics) Record(operation string, err error) {
	log.Printf("Provider call %s failed: %v", operation, err)

	rec := &models.ProviderError{
		Operation:  operation,
		Message:    err.Error(),
		OccurredAt: d.now(),
	}

	if d.repo != nil {
		if err := d.repo.Create(rec); err != nil {
			log.Printf("Failed to store diagnostic for %s: %v", operation, err)
		}
	}

	if d.alerter != nil {
		go func() {
			if err := d.alerter.Alert(rec.Operation, rec.Message); err != nil {
				log.Printf("Failed to send operator alert: %v", err)
			}
		}()
	}
}

// Recent returns up to limit stored failures, newest first
func (d *Diagnostics) Recent(limit int) ([]models.ProviderError, error) {
	if d.repo == nil {
		return []models.ProviderError{}, nil
	}
	records, err := d.repo.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnostics: %w", err)
	}
	if records == nil {
		records = []models.ProviderError{}
	}
	return records, nil
}

// Prune deletes stored failures older than retention
func (d *Diagnostics) Prune(retention time.Duration) (int64, error) {
	if d.repo == nil {
		return 0, nil
	}
	n, err := d.repo.DeleteBefore(d.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune diagnostics: %w", err)
	}
	return n, nil
}
