package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// FavoriteKind names the link table behind one kind of favorite.
type FavoriteKind struct {
	Name   string
	Table  string
	Column string
}

var (
	HorseFavorites      = FavoriteKind{Name: "horses", Table: "user_favorite_horses", Column: "horse_id"}
	RaceFavorites       = FavoriteKind{Name: "races", Table: "user_favorite_races", Column: "race_id"}
	RacecourseFavorites = FavoriteKind{Name: "racecourses", Table: "user_favorite_racecourses", Column: "racecourse_id"}
)

// Favorites manages one user/entity link table. T is the entity model the
// list query returns.
type Favorites[T any] struct {
	db      *bun.DB
	kind    FavoriteKind
	columns func(*bun.SelectQuery) *bun.SelectQuery
}

// NewFavorites returns a favorites repository for kind. An optional column
// hook adds joins to the list query.
func NewFavorites[T any](db *bun.DB, kind FavoriteKind, columns ...func(*bun.SelectQuery) *bun.SelectQuery) *Favorites[T] {
	f := &Favorites[T]{db: db, kind: kind}
	if len(columns) > 0 {
		f.columns = columns[0]
	}
	return f
}

// Kind reports which link table f manages.
func (f *Favorites[T]) Kind() FavoriteKind {
	return f.kind
}

// Add links userID to entityID. Adding an existing pair is a no-op.
func (f *Favorites[T]) Add(ctx context.Context, userID, entityID int64) error {
	values := map[string]interface{}{
		"user_id":     userID,
		f.kind.Column: entityID,
	}
	_, err := f.db.NewInsert().
		Model(&values).
		TableExpr(f.kind.Table).
		Ignore().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add favorite %s: %w", f.kind.Name, err)
	}
	return nil
}

// Remove unlinks userID from entityID. Removing a missing pair is a no-op.
func (f *Favorites[T]) Remove(ctx context.Context, userID, entityID int64) error {
	_, err := f.db.ExecContext(ctx,
		"DELETE FROM ? WHERE user_id = ? AND ? = ?",
		bun.Ident(f.kind.Table), userID, bun.Ident(f.kind.Column), entityID,
	)
	if err != nil {
		return fmt.Errorf("remove favorite %s: %w", f.kind.Name, err)
	}
	return nil
}

// List returns the user's favorited entities, most recently added first.
func (f *Favorites[T]) List(ctx context.Context, userID int64) ([]T, error) {
	out := []T{}
	q := f.db.NewSelect().Model(&out)
	if f.columns != nil {
		q = f.columns(q)
	}
	err := q.
		Join("JOIN ? AS uf ON uf.? = ?TableAlias.id", bun.Ident(f.kind.Table), bun.Ident(f.kind.Column)).
		Where("uf.user_id = ?", userID).
		OrderExpr("uf.created_at DESC, uf.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorite %s: %w", f.kind.Name, err)
	}
	return out, nil
}
