package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/filters"
	"github.com/jraweb/jraweb/repository"
)

const (
	horseOptionsKey = "options:horses"
	raceOptionsKey  = "options:races"
)

// OptionCacheKeys are the cached entry form choices. Drop them after the
// horse or race tables change outside the API.
var OptionCacheKeys = []string{horseOptionsKey, raceOptionsKey}

func (h *Handler) parseFilters(c echo.Context, s *filters.Spec) (filters.Values, error) {
	v, err := s.Parse(c.QueryParams())
	if err != nil {
		return v, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return v, nil
}

// Horses returns horses matching the query filters, ordered by name.
func (h *Handler) Horses(c echo.Context) error {
	v, err := h.parseFilters(c, h.horseFilters)
	if err != nil {
		return err
	}
	horses, err := h.repos.Horses.Find(c.Request().Context(), v)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, horses)
}

// Horse returns a single horse.
func (h *Handler) Horse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	horse, err := h.repos.Horses.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Horse not found")
	}
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, horse)
}

// Races returns races matching the query filters with their racecourse name.
func (h *Handler) Races(c echo.Context) error {
	v, err := h.parseFilters(c, h.raceFilters)
	if err != nil {
		return err
	}
	races, err := h.repos.Races.Find(c.Request().Context(), v)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, races)
}

// Race returns a single race.
func (h *Handler) Race(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	race, err := h.repos.Races.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Race not found")
	}
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, race)
}

// Racecourses returns racecourses matching the query filters.
func (h *Handler) Racecourses(c echo.Context) error {
	v, err := h.parseFilters(c, h.racecourseFilters)
	if err != nil {
		return err
	}
	courses, err := h.repos.Racecourses.Find(c.Request().Context(), v)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, courses)
}

// Racecourse returns a single racecourse.
func (h *Handler) Racecourse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.repos.Racecourses.FindByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Racecourse not found")
	}
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, course)
}

// AvailableHorses returns id/name pairs for the entry form.
func (h *Handler) AvailableHorses(c echo.Context) error {
	opts, err := cache.Remember(c.Request().Context(), h.cache, horseOptionsKey, h.ttl, h.repos.Horses.Options)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

// AvailableRaces returns id/name pairs for upcoming races.
func (h *Handler) AvailableRaces(c echo.Context) error {
	opts, err := cache.Remember(c.Request().Context(), h.cache, raceOptionsKey, h.ttl, h.repos.Races.Options)
	if err != nil {
		return h.dbError(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}
