package models

import "github.com/uptrace/bun"

// Race statuses.
const (
	RaceUpcoming = "upcoming"
	RaceFinished = "finished"
)

// Race is a graded race run at a racecourse.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	RacecourseID int64  `bun:"racecourse_id,notnull" json:"racecourse_id"`
	Distance     int    `bun:"distance,notnull" json:"distance"`
	Rang         string `bun:"rang,notnull,default:''" json:"rang"`
	TrackType    string `bun:"track_type,notnull,default:''" json:"track_type"`
	Direction    string `bun:"direction,notnull,default:''" json:"direction"`
	Season       string `bun:"season,notnull,default:''" json:"season"`
	Status       string `bun:"status,nullzero,notnull,default:'upcoming'" json:"status"`

	RacecourseName *string `bun:"racecourse_name,scanonly" json:"racecourse_name,omitempty"`
}
