package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race entry statuses. Only pending is set here; the rest are set out-of-band.
const (
	EntryPending  = "pending"
	EntryApproved = "approved"
	EntryRejected = "rejected"
)

// RaceEntry is a jockey's submission to ride a horse in a race.
type RaceEntry struct {
	bun.BaseModel `bun:"table:race_entries,alias:re"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	JockeyName     string    `bun:"jockey_name,notnull" json:"jockey_name"`
	LicenseNumber  string    `bun:"license_number,notnull" json:"license_number"`
	HorseID        int64     `bun:"horse_id,notnull" json:"horse_id"`
	RaceID         int64     `bun:"race_id,notnull" json:"race_id"`
	Saddlecloth    int       `bun:"saddlecloth,notnull" json:"saddlecloth"`
	Barrier        int       `bun:"barrier,notnull" json:"barrier"`
	DeclaredWeight float64   `bun:"declared_weight,notnull" json:"declared_weight"`
	HorseWeight    *int      `bun:"horse_weight" json:"horse_weight,omitempty"`
	Status         string    `bun:"status,nullzero,notnull,default:'pending'" json:"status"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	// joined
	RaceName       *string `bun:"race_name,scanonly" json:"race_name,omitempty"`
	HorseName      *string `bun:"horse_name,scanonly" json:"horse_name,omitempty"`
	RacecourseName *string `bun:"racecourse_name,scanonly" json:"racecourse_name,omitempty"`
}
