// Package repository runs the parameterized queries behind every API endpoint.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/models"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials is returned when no account matches a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Repositories bundles one repository per entity.
type Repositories struct {
	Horses      *Horses
	Races       *Races
	Racecourses *Racecourses
	Jockeys     *Jockeys
	Entries     *Entries

	FavoriteHorses      *Favorites[models.Horse]
	FavoriteRaces       *Favorites[models.Race]
	FavoriteRacecourses *Favorites[models.Racecourse]
}

// Options tunes repository behaviour.
type Options struct {
	// BcryptCost is used when hashing new passwords. Zero means bcrypt.DefaultCost.
	BcryptCost int
}

// New wires every repository against db.
func New(db *bun.DB, opts Options) *Repositories {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Repositories{
		Horses:              &Horses{db: db},
		Races:               &Races{db: db},
		Racecourses:         &Racecourses{db: db},
		Jockeys:             &Jockeys{db: db, cost: cost},
		Entries:             &Entries{db: db},
		FavoriteHorses:      NewFavorites[models.Horse](db, HorseFavorites),
		FavoriteRaces:       NewFavorites[models.Race](db, RaceFavorites, withRacecourseName),
		FavoriteRacecourses: NewFavorites[models.Racecourse](db, RacecourseFavorites),
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognises unique-constraint failures from every supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
