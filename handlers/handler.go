package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/filters"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/validate"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	repos  *repository.Repositories
	cache  cache.Cache
	ttl    time.Duration
	rules  validate.EntryRules
	jwtKey []byte
	log    *zap.Logger
	now    func() time.Time

	horseFilters      *filters.Spec
	raceFilters       *filters.Spec
	racecourseFilters *filters.Spec
}

// Options configures a Handler.
type Options struct {
	// Cache backs the form option lists; nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	OtherAchievements bool
	Entry             validate.EntryRules
	JWTKey            []byte
	Logger            *zap.Logger
}

// New creates a Handler over the given repositories.
func New(repos *repository.Repositories, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		repos:             repos,
		cache:             opts.Cache,
		ttl:               opts.CacheTTL,
		rules:             opts.Entry,
		jwtKey:            opts.JWTKey,
		log:               logger,
		now:               time.Now,
		horseFilters:      filters.HorseSpec(filters.HorseOptions{OtherAchievements: opts.OtherAchievements}),
		raceFilters:       filters.RaceSpec(),
		racecourseFilters: filters.RacecourseSpec(),
	}
}
