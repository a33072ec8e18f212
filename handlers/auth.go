package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mw "github.com/jraweb/jraweb/middleware"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/validate"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authUser struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	LicenseNumber string `json:"license_number,omitempty"`
}

type authResponse struct {
	Success bool     `json:"success"`
	User    authUser `json:"user"`
	Token   string   `json:"token,omitempty"`
}

// Login checks credentials and returns the jockey record with a signed token.
func (h *Handler) Login(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	j, err := h.repos.Jockeys.Authenticate(c.Request().Context(), creds.Username, creds.Password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return h.dbError(c, err)
	}

	token, err := mw.Issue(h.jwtKey, j.ID, j.Username, h.now())
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not sign token")
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		User: authUser{
			ID:            j.ID,
			Name:          j.Name,
			Username:      j.Username,
			LicenseNumber: j.LicenseNumber,
		},
		Token: token,
	})
}

// Register creates a jockey account. It does not log the new user in.
func (h *Handler) Register(c echo.Context) error {
	var in validate.Registration
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)

	if err := in.Check(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	j, err := h.repos.Jockeys.Create(c.Request().Context(), in)
	if errors.Is(err, repository.ErrUsernameTaken) {
		return fail(c, http.StatusBadRequest, "Username already exists")
	}
	if err != nil {
		return h.dbError(c, err)
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		User: authUser{
			ID:       j.ID,
			Name:     j.Name,
			Username: j.Username,
		},
	})
}
