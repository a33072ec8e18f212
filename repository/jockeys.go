package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/validate"
)

// recentEntries caps the per-jockey entry list in Stats.
const recentEntries = 10

// Jockeys manages accounts and credentials.
type Jockeys struct {
	db   *bun.DB
	cost int
}

// Create registers a new jockey. The password is stored as a bcrypt hash.
// A username that already exists returns ErrUsernameTaken and leaves the
// existing row untouched.
func (r *Jockeys) Create(ctx context.Context, in validate.Registration) (*models.Jockey, error) {
	username := strings.TrimSpace(in.Username)

	exists, err := r.db.NewSelect().
		Model((*models.Jockey)(nil)).
		Where("j.username = ?", username).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	j := &models.Jockey{
		Name:          strings.TrimSpace(in.FullName),
		Username:      username,
		Password:      string(hash),
		LicenseNumber: strings.TrimSpace(in.LicenseNumber),
	}
	if _, err := r.db.NewInsert().Model(j).Exec(ctx); err != nil {
		// lost a race with a concurrent registration
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert jockey: %w", err)
	}
	return j, nil
}

// Authenticate returns the jockey whose username and password both match.
// Every mismatch, including an unknown username, is ErrInvalidCredentials.
func (r *Jockeys) Authenticate(ctx context.Context, username, password string) (*models.Jockey, error) {
	j, err := r.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(j.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return j, nil
}

// FindByID returns a jockey or ErrNotFound.
func (r *Jockeys) FindByID(ctx context.Context, id int64) (*models.Jockey, error) {
	j := &models.Jockey{}
	if err := r.db.NewSelect().Model(j).Where("j.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return j, nil
}

// FindByUsername returns a jockey or ErrNotFound.
func (r *Jockeys) FindByUsername(ctx context.Context, username string) (*models.Jockey, error) {
	j := &models.Jockey{}
	if err := r.db.NewSelect().Model(j).Where("j.username = ?", username).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return j, nil
}

// SetPassword replaces a jockey's password hash.
func (r *Jockeys) SetPassword(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := r.db.NewUpdate().
		Model((*models.Jockey)(nil)).
		Set("password = ?", string(hash)).
		Where("j.username = ?", username).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// JockeyStats is one row of the jockey statistics listing.
type JockeyStats struct {
	ID            int64              `bun:"id" json:"id"`
	Name          string             `bun:"name" json:"name"`
	Username      string             `bun:"username" json:"username"`
	LicenseNumber string             `bun:"license_number" json:"license_number"`
	CreatedAt     time.Time          `bun:"created_at" json:"created_at"`
	TotalEntries  int                `bun:"total_entries" json:"total_entries"`
	RaceEntries   []models.RaceEntry `bun:"-" json:"race_entries"`
}

// StatsSummary aggregates the listing.
type StatsSummary struct {
	TotalJockeys int `json:"totalJockeys"`
	TotalEntries int `json:"totalEntries"`
}

// Stats lists every jockey with an entry count and their most recent entries.
func (r *Jockeys) Stats(ctx context.Context) ([]JockeyStats, StatsSummary, error) {
	rows := []JockeyStats{}
	err := r.db.NewSelect().
		TableExpr("jockeys AS j").
		ColumnExpr("j.id, j.name, j.username, j.license_number, j.created_at").
		ColumnExpr("COUNT(re.id) AS total_entries").
		Join("LEFT JOIN race_entries AS re ON re.license_number = j.license_number").
		GroupExpr("j.id, j.name, j.username, j.license_number, j.created_at").
		OrderExpr("j.name ASC, j.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, StatsSummary{}, fmt.Errorf("jockey stats: %w", err)
	}

	summary := StatsSummary{TotalJockeys: len(rows)}
	for i := range rows {
		entries := []models.RaceEntry{}
		err := r.db.NewSelect().
			Model(&entries).
			ColumnExpr("re.*").
			ColumnExpr("r.name AS race_name").
			Join("LEFT JOIN races AS r ON r.id = re.race_id").
			Where("re.license_number = ?", rows[i].LicenseNumber).
			OrderExpr("re.created_at DESC, re.id DESC").
			Limit(recentEntries).
			Scan(ctx)
		if err != nil {
			return nil, StatsSummary{}, fmt.Errorf("recent entries for %s: %w", rows[i].Username, err)
		}
		rows[i].RaceEntries = entries
		summary.TotalEntries += rows[i].TotalEntries
	}
	return rows, summary, nil
}

// Profile returns a jockey's public fields or ErrNotFound.
func (r *Jockeys) Profile(ctx context.Context, id int64) (*models.Jockey, error) {
	j := &models.Jockey{}
	err := r.db.NewSelect().
		Model(j).
		Column("id", "name", "username", "license_number", "created_at").
		Where("j.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return j, nil
}
