package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// dbErrorMessage is the only detail a client sees for a storage failure.
const dbErrorMessage = "Database error"

type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// fail answers with the {success:false, message} shape used by the form endpoints.
func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, failure{Success: false, Message: msg})
}

func (h *Handler) dbError(c echo.Context, err error) error {
	h.log.Error("database error",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, dbErrorMessage).SetInternal(err)
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var msg interface{} = http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = he.Message
			if m, ok := msg.(string); !ok || m == "" {
				msg = http.StatusText(code)
			}
		} else {
			logger.Error("unhandled error", zap.String("route", c.Path()), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{"error": msg})
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

// apiNotFound answers any unmatched /api path.
func apiNotFound(c echo.Context) error {
	return echo.NewHTTPError(http.StatusNotFound, "API endpoint not found")
}

// pathID reads a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
