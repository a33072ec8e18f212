package main

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/jraweb/jraweb/models"
)

// legacyRaceEntry is a jra_website race_entries row. The legacy table
// stamps rows with submitted_at and has no horse_weight column.
type legacyRaceEntry struct {
	bun.BaseModel `bun:"table:race_entries,alias:re"`

	ID             int64     `bun:"id,pk,autoincrement"`
	JockeyName     string    `bun:"jockey_name,notnull"`
	LicenseNumber  string    `bun:"license_number,notnull"`
	HorseID        int64     `bun:"horse_id,notnull"`
	RaceID         int64     `bun:"race_id,notnull"`
	Saddlecloth    int       `bun:"saddlecloth,notnull"`
	Barrier        int       `bun:"barrier,notnull"`
	DeclaredWeight float64   `bun:"declared_weight,notnull"`
	Status         string    `bun:"status,nullzero"`
	SubmittedAt    time.Time `bun:"submitted_at,nullzero"`
}

func (e legacyRaceEntry) entry() (models.RaceEntry, error) {
	status := e.Status
	if status == "" {
		status = models.EntryPending
	}
	return models.RaceEntry{
		ID:             e.ID,
		JockeyName:     e.JockeyName,
		LicenseNumber:  e.LicenseNumber,
		HorseID:        e.HorseID,
		RaceID:         e.RaceID,
		Saddlecloth:    e.Saddlecloth,
		Barrier:        e.Barrier,
		DeclaredWeight: e.DeclaredWeight,
		Status:         status,
		CreatedAt:      e.SubmittedAt,
	}, nil
}
