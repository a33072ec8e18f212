// Package apitest runs the real JSON API over a seeded SQLite database for
// client-side tests.
package apitest

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/handlers"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/testutil"
	"github.com/jraweb/jraweb/validate"
)

// Server is a running API with its seeded fixtures.
type Server struct {
	URL      string
	Fixtures *testutil.Fixtures
	Repos    *repository.Repositories
}

// New starts the API and returns its base URL ending in /api.
func New(t *testing.T) *Server {
	t.Helper()
	bdb := testutil.NewDB(t)
	fx := testutil.Seed(t, bdb)

	mem := cache.NewMemory(time.Minute)
	repos := repository.New(bdb, repository.Options{BcryptCost: bcrypt.MinCost})
	h := handlers.New(repos, handlers.Options{
		Cache:             mem,
		CacheTTL:          time.Minute,
		OtherAchievements: true,
		Entry:             validate.DefaultEntryRules(),
		JWTKey:            []byte("apitest-secret"),
		Logger:            zap.NewNop(),
	})

	e := echo.New()
	e.HTTPErrorHandler = handlers.ErrorHandler(zap.NewNop())
	handlers.Register(e, h)

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		_ = mem.Close()
	})
	return &Server{URL: srv.URL + "/api", Fixtures: fx, Repos: repos}
}
