package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/jraweb/jraweb/middleware"
	"github.com/jraweb/jraweb/repository"
)

type success struct {
	Success bool `json:"success"`
}

// registerFavorites mounts list/add/remove routes for one favorite kind.
func registerFavorites[T any](g *echo.Group, h *Handler, f *repository.Favorites[T]) {
	base := "/user/favorites/" + f.Kind().Name
	g.GET(base+"/:userId", listFavorites(h, f))
	g.POST(base, addFavorite(h, f))
	g.DELETE(base, removeFavorite(h, f))
	g.DELETE(base+"/:userId/:entityId", removeFavorite(h, f))
}

// favoritePair reads the user and entity ids from the path when present,
// otherwise from a JSON body keyed userId and the entity column.
func favoritePair(c echo.Context, kind repository.FavoriteKind) (int64, int64, error) {
	if c.Param("userId") != "" {
		userID, err := pathID(c, "userId")
		if err != nil {
			return 0, 0, err
		}
		entityID, err := pathID(c, "entityId")
		if err != nil {
			return 0, 0, err
		}
		return userID, entityID, nil
	}

	body := map[string]jsonNumber{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID, ok := body["userId"].ID()
	if !ok {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}
	entityID, ok := body[kind.Column].ID()
	if !ok {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+kind.Column)
	}
	return userID, entityID, nil
}

func listFavorites[T any](h *Handler, f *repository.Favorites[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := pathID(c, "userId")
		if err != nil {
			return err
		}
		if err := mw.RequireUser(c, userID); err != nil {
			return err
		}
		items, err := f.List(c.Request().Context(), userID)
		if err != nil {
			return h.dbError(c, err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func addFavorite[T any](h *Handler, f *repository.Favorites[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, entityID, err := favoritePair(c, f.Kind())
		if err != nil {
			return err
		}
		if err := mw.RequireUser(c, userID); err != nil {
			return err
		}
		if err := f.Add(c.Request().Context(), userID, entityID); err != nil {
			return h.dbError(c, err)
		}
		return c.JSON(http.StatusOK, success{Success: true})
	}
}

func removeFavorite[T any](h *Handler, f *repository.Favorites[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, entityID, err := favoritePair(c, f.Kind())
		if err != nil {
			return err
		}
		if err := mw.RequireUser(c, userID); err != nil {
			return err
		}
		if err := f.Remove(c.Request().Context(), userID, entityID); err != nil {
			return h.dbError(c, err)
		}
		return c.JSON(http.StatusOK, success{Success: true})
	}
}
