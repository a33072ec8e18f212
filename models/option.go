package models

// Option is an id/name pair used to fill form selects.
type Option struct {
	ID   int64  `bun:"id" json:"id"`
	Name string `bun:"name" json:"name"`
}
