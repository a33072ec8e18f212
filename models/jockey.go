package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Jockey is a registered site user. Password holds a bcrypt hash.
type Jockey struct {
	bun.BaseModel `bun:"table:jockeys,alias:j"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	Password      string    `bun:"password,notnull" json:"-"`
	LicenseNumber string    `bun:"license_number,notnull" json:"license_number"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
