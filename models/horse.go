package models

import "github.com/uptrace/bun"

// Horse is read-only reference data about a racehorse and its career record.
type Horse struct {
	bun.BaseModel `bun:"table:horses,alias:h"`

	ID                int64  `bun:"id,pk,autoincrement" json:"id"`
	Name              string `bun:"name,notnull" json:"name"`
	BirthYear         int    `bun:"birth_year,notnull" json:"birth_year"`
	DeathYear         *int   `bun:"death_year" json:"death_year"`
	TotalRaces        int    `bun:"total_races,notnull,default:0" json:"total_races"`
	TotalWins         int    `bun:"total_wins,notnull,default:0" json:"total_wins"`
	TotalLosses       int    `bun:"total_losses,notnull,default:0" json:"total_losses"`
	TripleCrown       bool   `bun:"triple_crown,notnull,default:false" json:"triple_crown"`
	TiaraCrown        bool   `bun:"tiara_crown,notnull,default:false" json:"tiara_crown"`
	OtherAchievements bool   `bun:"other_achievements,notnull,default:false" json:"other_achievements"`
}

// Achievements lists the titles held by the horse in display order.
func (h *Horse) Achievements() []string {
	var out []string
	if h.TripleCrown {
		out = append(out, "Triple Crown")
	}
	if h.TiaraCrown {
		out = append(out, "Tiara Crown")
	}
	if h.OtherAchievements {
		out = append(out, "Other")
	}
	return out
}
