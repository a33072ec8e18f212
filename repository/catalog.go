package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/jraweb/jraweb/filters"
	"github.com/jraweb/jraweb/models"
)

// Horses reads horse reference data.
type Horses struct {
	db *bun.DB
}

// Find returns horses matching v ordered by name.
func (r *Horses) Find(ctx context.Context, v filters.Values) ([]models.Horse, error) {
	horses := []models.Horse{}
	q := v.Apply(r.db.NewSelect().Model(&horses)).
		OrderExpr("h.name ASC, h.id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("find horses: %w", err)
	}
	return horses, nil
}

// FindByID returns one horse or ErrNotFound.
func (r *Horses) FindByID(ctx context.Context, id int64) (*models.Horse, error) {
	horse := &models.Horse{}
	err := r.db.NewSelect().Model(horse).Where("h.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return horse, nil
}

// Options returns id/name pairs for every horse.
func (r *Horses) Options(ctx context.Context) ([]models.Option, error) {
	opts := []models.Option{}
	err := r.db.NewSelect().
		Model((*models.Horse)(nil)).
		Column("id", "name").
		OrderExpr("h.name ASC, h.id ASC").
		Scan(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("horse options: %w", err)
	}
	return opts, nil
}

// Races reads race reference data with the racecourse name joined.
type Races struct {
	db *bun.DB
}

func withRacecourseName(q *bun.SelectQuery) *bun.SelectQuery {
	return q.ColumnExpr("r.*").
		ColumnExpr("rc.name AS racecourse_name").
		Join("LEFT JOIN racecourses AS rc ON rc.id = r.racecourse_id")
}

// Find returns races matching v ordered by name.
func (r *Races) Find(ctx context.Context, v filters.Values) ([]models.Race, error) {
	races := []models.Race{}
	q := withRacecourseName(r.db.NewSelect().Model(&races))
	q = v.Apply(q).OrderExpr("r.name ASC, r.id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("find races: %w", err)
	}
	return races, nil
}

// FindByID returns one race or ErrNotFound.
func (r *Races) FindByID(ctx context.Context, id int64) (*models.Race, error) {
	race := &models.Race{}
	err := withRacecourseName(r.db.NewSelect().Model(race)).
		Where("r.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return race, nil
}

// Options returns id/name pairs for races still open to entries.
func (r *Races) Options(ctx context.Context) ([]models.Option, error) {
	opts := []models.Option{}
	err := r.db.NewSelect().
		Model((*models.Race)(nil)).
		Column("id", "name").
		Where("r.status = ?", models.RaceUpcoming).
		OrderExpr("r.name ASC, r.id ASC").
		Scan(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("race options: %w", err)
	}
	return opts, nil
}

// Racecourses reads racecourse reference data.
type Racecourses struct {
	db *bun.DB
}

// Find returns racecourses matching v ordered by name.
func (r *Racecourses) Find(ctx context.Context, v filters.Values) ([]models.Racecourse, error) {
	courses := []models.Racecourse{}
	q := v.Apply(r.db.NewSelect().Model(&courses)).
		OrderExpr("rc.name ASC, rc.id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("find racecourses: %w", err)
	}
	return courses, nil
}

// FindByID returns one racecourse or ErrNotFound.
func (r *Racecourses) FindByID(ctx context.Context, id int64) (*models.Racecourse, error) {
	course := &models.Racecourse{}
	err := r.db.NewSelect().Model(course).Where("rc.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return course, nil
}
