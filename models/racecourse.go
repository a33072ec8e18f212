package models

import "github.com/uptrace/bun"

// Racecourse is a venue hosting races.
type Racecourse struct {
	bun.BaseModel `bun:"table:racecourses,alias:rc"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull,unique" json:"name"`
	Location     string `bun:"location,notnull,default:''" json:"location"`
	TrackTypes   string `bun:"track_types,notnull,default:''" json:"track_types"`
	Direction    string `bun:"direction,notnull,default:''" json:"direction"`
	MainDistance int    `bun:"main_distance,notnull,default:0" json:"main_distance"`
	Corners      int    `bun:"corners,notnull,default:0" json:"corners"`
}
