package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/jraweb/jraweb/models"
)

// Entries stores race entry submissions.
type Entries struct {
	db *bun.DB
}

// Create inserts e with status pending and fills in its id.
func (r *Entries) Create(ctx context.Context, e *models.RaceEntry) error {
	e.ID = 0
	e.Status = models.EntryPending
	if _, err := r.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// ForJockey returns a jockey and their entries, newest first, with race,
// horse and racecourse names joined. An unknown jockey is ErrNotFound.
func (r *Entries) ForJockey(ctx context.Context, userID int64) (*models.Jockey, []models.RaceEntry, error) {
	j := &models.Jockey{}
	err := r.db.NewSelect().
		Model(j).
		Column("id", "name", "license_number").
		Where("j.id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, nil, notFound(err)
	}

	entries := []models.RaceEntry{}
	err = r.db.NewSelect().
		Model(&entries).
		ColumnExpr("re.*").
		ColumnExpr("r.name AS race_name").
		ColumnExpr("h.name AS horse_name").
		ColumnExpr("rc.name AS racecourse_name").
		Join("LEFT JOIN races AS r ON r.id = re.race_id").
		Join("LEFT JOIN horses AS h ON h.id = re.horse_id").
		Join("LEFT JOIN racecourses AS rc ON rc.id = r.racecourse_id").
		Where("re.license_number = ?", j.LicenseNumber).
		OrderExpr("re.created_at DESC, re.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("jockey entries: %w", err)
	}
	return j, entries, nil
}
