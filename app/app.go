// Package app owns client-side state: the API client, the identity store,
// the notification banner and the current user's favorites.
package app

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/filters"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/notify"
	"github.com/jraweb/jraweb/render"
	"github.com/jraweb/jraweb/session"
	"github.com/jraweb/jraweb/validate"
)

// ErrNotLoggedIn is returned by actions that need an identity.
var ErrNotLoggedIn = errors.New("please login first")

// Kinds lists the favorite kinds in display order.
var Kinds = []string{client.KindHorses, client.KindRaces, client.KindRacecourses}

// Config holds the app's tunables.
type Config struct {
	Entry             validate.EntryRules
	OtherAchievements bool
}

// App is the explicit application state handed to every view.
type App struct {
	api     *client.Client
	session *session.Store
	banner  *notify.Banner
	rules   validate.EntryRules
	log     *zap.Logger

	horseFilters      *filters.Spec
	raceFilters       *filters.Spec
	racecourseFilters *filters.Spec

	mu        sync.RWMutex
	favorites map[string]map[int64]bool
	unsub     func()
}

// New wires an App. Call Start before using favorites.
func New(api *client.Client, store *session.Store, banner *notify.Banner, cfg Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		api:               api,
		session:           store,
		banner:            banner,
		rules:             cfg.Entry,
		log:               logger,
		horseFilters:      filters.HorseSpec(filters.HorseOptions{OtherAchievements: cfg.OtherAchievements}),
		raceFilters:       filters.RaceSpec(),
		racecourseFilters: filters.RacecourseSpec(),
		favorites:         map[string]map[int64]bool{},
	}
}

// Start waits for the identity store to be ready, loads favorites for the
// current user and follows later identity changes.
func (a *App) Start(ctx context.Context) error {
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.unsub = a.session.Subscribe(func(u *session.User) {
		if u == nil {
			a.clearFavorites()
			return
		}
		if err := a.loadFavorites(context.Background(), *u); err != nil {
			a.log.Warn("reload favorites", zap.Error(err))
		}
	})

	if u, ok := a.session.Current(); ok {
		return a.loadFavorites(ctx, u)
	}
	return nil
}

// Close stops following identity changes.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}

// Session exposes the identity store.
func (a *App) Session() *session.Store {
	return a.session
}

// Banner exposes the notification banner.
func (a *App) Banner() *notify.Banner {
	return a.banner
}

// authed returns the client carrying the current user's token.
func (a *App) authed() (*client.Client, session.User, bool) {
	u, ok := a.session.Current()
	if !ok {
		return a.api, u, false
	}
	return a.api.WithToken(u.Token), u, true
}

func (a *App) loadFavorites(ctx context.Context, u session.User) error {
	api := a.api.WithToken(u.Token)
	sets := make(map[string]map[int64]bool, len(Kinds))
	for _, kind := range Kinds {
		ids, err := api.FavoriteIDs(ctx, kind, u.ID)
		if err != nil {
			return err
		}
		set := make(map[int64]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		sets[kind] = set
	}

	// drop the result if the identity changed while loading
	if cur, ok := a.session.Current(); !ok || cur.ID != u.ID {
		return nil
	}
	a.mu.Lock()
	a.favorites = sets
	a.mu.Unlock()
	return nil
}

func (a *App) clearFavorites() {
	a.mu.Lock()
	a.favorites = map[string]map[int64]bool{}
	a.mu.Unlock()
}

// IsFavorite reports whether the current user favorited id.
func (a *App) IsFavorite(kind string, id int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.favorites[kind][id]
}

func (a *App) favoriteFunc(kind string) render.Favorites {
	if a.session.State() != session.Authenticated {
		return nil
	}
	return func(id int64) bool { return a.IsFavorite(kind, id) }
}

// fail shows err on the banner, falling back to msg when err carries no
// user-facing message.
func (a *App) fail(err error, msg string) error {
	a.banner.Show(notify.Error, message(err, msg))
	return err
}

func message(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return fallback
}

// ListHorses normalizes raw filter input and returns the horse table.
func (a *App) ListHorses(ctx context.Context, form map[string]string) (render.Table, url.Values, error) {
	q := a.horseFilters.Normalize(form)
	horses, err := a.api.Horses(ctx, q)
	if err != nil {
		return render.Table{}, q, a.fail(err, "Failed to load horses")
	}
	return render.Horses(horses, a.favoriteFunc(client.KindHorses)), q, nil
}

// ListRaces normalizes raw filter input and returns the race table.
func (a *App) ListRaces(ctx context.Context, form map[string]string) (render.Table, url.Values, error) {
	q := a.raceFilters.Normalize(form)
	races, err := a.api.Races(ctx, q)
	if err != nil {
		return render.Table{}, q, a.fail(err, "Failed to load races")
	}
	return render.Races(races, a.favoriteFunc(client.KindRaces)), q, nil
}

// ListRacecourses normalizes raw filter input and returns the racecourse table.
func (a *App) ListRacecourses(ctx context.Context, form map[string]string) (render.Table, url.Values, error) {
	q := a.racecourseFilters.Normalize(form)
	courses, err := a.api.Racecourses(ctx, q)
	if err != nil {
		return render.Table{}, q, a.fail(err, "Failed to load racecourses")
	}
	return render.Racecourses(courses, a.favoriteFunc(client.KindRacecourses)), q, nil
}

// ToggleFavorite adds or removes id and reports whether it is now a favorite.
func (a *App) ToggleFavorite(ctx context.Context, kind string, id int64) (bool, error) {
	api, u, ok := a.authed()
	if !ok {
		a.banner.Show(notify.Warning, "Please login to add favorites")
		return false, ErrNotLoggedIn
	}

	on := !a.IsFavorite(kind, id)
	var err error
	if on {
		err = api.AddFavorite(ctx, kind, u.ID, id)
	} else {
		err = api.RemoveFavorite(ctx, kind, u.ID, id)
	}
	if err != nil {
		return !on, a.fail(err, "Failed to update favorites")
	}

	a.mu.Lock()
	if a.favorites[kind] == nil {
		a.favorites[kind] = map[int64]bool{}
	}
	if on {
		a.favorites[kind][id] = true
	} else {
		delete(a.favorites[kind], id)
	}
	a.mu.Unlock()

	if on {
		a.banner.Show(notify.Success, "Added to favorites")
	} else {
		a.banner.Show(notify.Info, "Removed from favorites")
	}
	return on, nil
}

// Horse returns the single-row table for one horse.
func (a *App) Horse(ctx context.Context, id int64) (render.Table, error) {
	h, err := a.api.Horse(ctx, id)
	if err != nil {
		return render.Table{}, a.fail(err, "Failed to load horse")
	}
	return render.Horses([]models.Horse{*h}, a.favoriteFunc(client.KindHorses)), nil
}

// EntryChoices holds the entry form's horse and race selects.
type EntryChoices struct {
	Horses []models.Option
	Races  []models.Option
}

// EntryChoices loads every horse and the races still open to entries.
func (a *App) EntryChoices(ctx context.Context) (EntryChoices, error) {
	var c EntryChoices
	var err error
	if c.Horses, err = a.api.AvailableHorses(ctx); err != nil {
		return c, a.fail(err, "Failed to load horses")
	}
	if c.Races, err = a.api.AvailableRaces(ctx); err != nil {
		return c, a.fail(err, "Failed to load races")
	}
	return c, nil
}

// Lookup finds an option by case-insensitive name.
func Lookup(opts []models.Option, name string) (int64, bool) {
	name = strings.TrimSpace(name)
	for _, o := range opts {
		if strings.EqualFold(o.Name, name) {
			return o.ID, true
		}
	}
	return 0, false
}

// EntryForm is the race entry form as typed by the user.
type EntryForm struct {
	JockeyName     string
	LicenseNumber  string
	HorseID        int64
	RaceID         int64
	Saddlecloth    int
	Barrier        int
	DeclaredWeight float64
	HorseWeight    *int
}

// SubmitEntry validates the form, fills the jockey name and license from the
// logged-in identity when left blank, and submits it once.
func (a *App) SubmitEntry(ctx context.Context, f EntryForm) (int64, error) {
	err := a.rules.Check(validate.Entry{
		HorseID:        f.HorseID,
		RaceID:         f.RaceID,
		Saddlecloth:    f.Saddlecloth,
		Barrier:        f.Barrier,
		DeclaredWeight: f.DeclaredWeight,
		HorseWeight:    f.HorseWeight,
	})
	if err != nil {
		a.banner.Show(notify.Error, err.Error())
		return 0, err
	}

	api, u, ok := a.authed()
	if ok {
		if f.JockeyName == "" {
			f.JockeyName = u.Name
		}
		if f.LicenseNumber == "" {
			f.LicenseNumber = u.LicenseNumber
		}
	}
	if f.JockeyName == "" || f.LicenseNumber == "" {
		err := errors.New("jockey name and license number are required")
		a.banner.Show(notify.Error, err.Error())
		return 0, err
	}

	id, err := api.SubmitEntry(ctx, client.Entry{
		JockeyName:     f.JockeyName,
		LicenseNumber:  f.LicenseNumber,
		HorseID:        f.HorseID,
		RaceID:         f.RaceID,
		Saddlecloth:    f.Saddlecloth,
		Barrier:        f.Barrier,
		DeclaredWeight: f.DeclaredWeight,
		HorseWeight:    f.HorseWeight,
	})
	if err != nil {
		return 0, a.fail(err, "Failed to submit entry")
	}

	a.banner.Show(notify.Success, "Race entry submitted successfully")
	return id, nil
}
