package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/jraweb/jraweb/middleware"
)

// Register mounts the JSON API under /api. Unmatched /api paths answer 404.
func Register(e *echo.Echo, h *Handler) {
	api := e.Group("/api", mw.Identity(h.jwtKey))

	api.GET("/horses", h.Horses)
	api.GET("/horses/:id", h.Horse)
	api.GET("/races", h.Races)
	api.GET("/races/:id", h.Race)
	api.GET("/racecourses", h.Racecourses)
	api.GET("/racecourses/:id", h.Racecourse)
	api.GET("/available-horses", h.AvailableHorses)
	api.GET("/available-races", h.AvailableRaces)

	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.POST("/race-entries", h.CreateEntry)

	registerFavorites(api, h, h.repos.FavoriteHorses)
	registerFavorites(api, h, h.repos.FavoriteRaces)
	registerFavorites(api, h, h.repos.FavoriteRacecourses)

	api.GET("/user/profile/:userId", h.Profile)
	api.GET("/user/entries/:userId", h.UserEntries)
	api.GET("/jockeys/stats", h.JockeyStats)

	api.Any("/*", apiNotFound)
}
