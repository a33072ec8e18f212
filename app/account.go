package app

import (
	"context"
	"fmt"

	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/notify"
	"github.com/jraweb/jraweb/render"
	"github.com/jraweb/jraweb/validate"
)

// Login signs in and announces the result on the banner.
func (a *App) Login(ctx context.Context, username, password string) error {
	u, err := a.session.Login(ctx, username, password)
	if err != nil {
		a.banner.Show(notify.Error, message(err, "Login failed"))
		return err
	}
	a.banner.Show(notify.Success, "Welcome, "+u.Name)
	return nil
}

// Register creates an account. The user still has to log in afterwards.
func (a *App) Register(ctx context.Context, r validate.Registration) error {
	if err := a.session.Register(ctx, r); err != nil {
		a.banner.Show(notify.Error, message(err, "Registration failed"))
		return err
	}
	a.banner.Show(notify.Success, "Registration successful, please login")
	return nil
}

// Logout forgets the current identity.
func (a *App) Logout() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	a.banner.Show(notify.Info, "Logged out")
	return nil
}

// Profile returns the logged-in jockey's public profile.
func (a *App) Profile(ctx context.Context) (*models.Jockey, error) {
	api, u, ok := a.authed()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return api.Profile(ctx, u.ID)
}

// Entries returns the logged-in jockey's race entries, newest first.
func (a *App) Entries(ctx context.Context) (*client.JockeyEntries, error) {
	api, u, ok := a.authed()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return api.Entries(ctx, u.ID)
}

// JockeyStats returns per-jockey entry counts.
func (a *App) JockeyStats(ctx context.Context) (*client.Stats, error) {
	return a.api.JockeyStats(ctx)
}

// Favorites returns the logged-in user's favorites of one kind, newest first.
func (a *App) Favorites(ctx context.Context, kind string) (render.Table, error) {
	api, u, ok := a.authed()
	if !ok {
		a.banner.Show(notify.Warning, "Please login to see favorites")
		return render.Table{}, ErrNotLoggedIn
	}

	fav := a.favoriteFunc(kind)
	switch kind {
	case client.KindHorses:
		rows, err := api.FavoriteHorses(ctx, u.ID)
		if err != nil {
			return render.Table{}, a.fail(err, "Failed to load favorites")
		}
		return render.Horses(rows, fav), nil
	case client.KindRaces:
		rows, err := api.FavoriteRaces(ctx, u.ID)
		if err != nil {
			return render.Table{}, a.fail(err, "Failed to load favorites")
		}
		return render.Races(rows, fav), nil
	case client.KindRacecourses:
		rows, err := api.FavoriteRacecourses(ctx, u.ID)
		if err != nil {
			return render.Table{}, a.fail(err, "Failed to load favorites")
		}
		return render.Racecourses(rows, fav), nil
	}
	return render.Table{}, fmt.Errorf("unknown favorite kind %q", kind)
}
