package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FavoriteHorse links a jockey to a favorited horse.
type FavoriteHorse struct {
	bun.BaseModel `bun:"table:user_favorite_horses,alias:ufh"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull,unique:user_favorite_horses_pair" json:"user_id"`
	HorseID   int64     `bun:"horse_id,notnull,unique:user_favorite_horses_pair" json:"horse_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// FavoriteRace links a jockey to a favorited race.
type FavoriteRace struct {
	bun.BaseModel `bun:"table:user_favorite_races,alias:ufr"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull,unique:user_favorite_races_pair" json:"user_id"`
	RaceID    int64     `bun:"race_id,notnull,unique:user_favorite_races_pair" json:"race_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// FavoriteRacecourse links a jockey to a favorited racecourse.
type FavoriteRacecourse struct {
	bun.BaseModel `bun:"table:user_favorite_racecourses,alias:ufc"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64     `bun:"user_id,notnull,unique:user_favorite_racecourses_pair" json:"user_id"`
	RacecourseID int64     `bun:"racecourse_id,notnull,unique:user_favorite_racecourses_pair" json:"racecourse_id"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
