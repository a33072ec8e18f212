package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/jraweb/jraweb/middleware"
	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/repository"
)

type jockeyEntries struct {
	Success bool               `json:"success"`
	Jockey  jockeyRef          `json:"jockey"`
	Entries []models.RaceEntry `json:"entries"`
}

type jockeyRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
}

type jockeyStats struct {
	Jockeys []repository.JockeyStats `json:"jockeys"`
	Stats   repository.StatsSummary  `json:"stats"`
}

// Profile returns a jockey's profile without the password.
func (h *Handler) Profile(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := mw.RequireUser(c, userID); err != nil {
		return err
	}
	j, err := h.repos.Jockeys.Profile(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// UserEntries returns a jockey's race entries, newest first.
func (h *Handler) UserEntries(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := mw.RequireUser(c, userID); err != nil {
		return err
	}
	j, entries, err := h.repos.Entries.ForJockey(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Jockey not found")
	}
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, jockeyEntries{
		Success: true,
		Jockey:  jockeyRef{ID: j.ID, Name: j.Name, LicenseNumber: j.LicenseNumber},
		Entries: entries,
	})
}

// JockeyStats lists every jockey with entry counts and recent races.
func (h *Handler) JockeyStats(c echo.Context) error {
	rows, summary, err := h.repos.Jockeys.Stats(c.Request().Context())
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, jockeyStats{Jockeys: rows, Stats: summary})
}
