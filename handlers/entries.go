package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jraweb/jraweb/models"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/validate"
)

type entryRequest struct {
	JockeyName     string     `json:"jockeyName"`
	LicenseNumber  string     `json:"licenseNumber"`
	HorseID        jsonNumber `json:"horseId"`
	RaceID         jsonNumber `json:"raceId"`
	Saddlecloth    jsonNumber `json:"saddlecloth"`
	Barrier        jsonNumber `json:"barrier"`
	DeclaredWeight jsonNumber `json:"declaredWeight"`
	HorseWeight    jsonNumber `json:"horseWeight"`
}

type entryResponse struct {
	Success bool  `json:"success"`
	EntryID int64 `json:"entryId"`
}

func (r entryRequest) entry() (validate.Entry, error) {
	whole := []struct {
		name string
		n    jsonNumber
	}{
		{"saddlecloth", r.Saddlecloth},
		{"barrier", r.Barrier},
		{"horse weight", r.HorseWeight},
	}
	for _, w := range whole {
		if w.n.Valid && !w.n.Whole() {
			return validate.Entry{}, errors.New(w.name + " must be a whole number")
		}
	}

	in := validate.Entry{
		Saddlecloth:    int(r.Saddlecloth.Int64()),
		Barrier:        int(r.Barrier.Int64()),
		DeclaredWeight: r.DeclaredWeight.Value,
	}
	in.HorseID, _ = r.HorseID.ID()
	in.RaceID, _ = r.RaceID.ID()
	if r.HorseWeight.Valid {
		w := int(r.HorseWeight.Int64())
		in.HorseWeight = &w
	}
	return in, nil
}

// CreateEntry validates and stores a race entry with status pending.
// Duplicate submissions create duplicate rows.
func (h *Handler) CreateEntry(c echo.Context) error {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.JockeyName = strings.TrimSpace(req.JockeyName)
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)

	in, err := req.entry()
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if err := h.rules.Check(in); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if req.JockeyName == "" || req.LicenseNumber == "" {
		return fail(c, http.StatusBadRequest, "jockey name and license number are required")
	}

	ctx := c.Request().Context()
	if _, err := h.repos.Horses.FindByID(ctx, in.HorseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "unknown horse")
		}
		return h.dbError(c, err)
	}
	race, err := h.repos.Races.FindByID(ctx, in.RaceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "unknown race")
		}
		return h.dbError(c, err)
	}
	if race.Status != models.RaceUpcoming {
		return fail(c, http.StatusBadRequest, "race is not open for entries")
	}

	e := &models.RaceEntry{
		JockeyName:     req.JockeyName,
		LicenseNumber:  req.LicenseNumber,
		HorseID:        in.HorseID,
		RaceID:         in.RaceID,
		Saddlecloth:    in.Saddlecloth,
		Barrier:        in.Barrier,
		DeclaredWeight: in.DeclaredWeight,
		HorseWeight:    in.HorseWeight,
	}
	if err := h.repos.Entries.Create(ctx, e); err != nil {
		return h.dbError(c, err)
	}

	return c.JSON(http.StatusOK, entryResponse{Success: true, EntryID: e.ID})
}
