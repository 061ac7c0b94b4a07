package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/payment"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// respondError maps service and repository errors onto the JSON error
// envelope.  Anything unrecognised is logged and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		msg := strings.TrimSuffix(err.Error(), ": "+repository.ErrConflict.Error())
		return c.JSON(http.StatusConflict, echo.Map{"error": msg})
	case errors.Is(err, payment.ErrBadSignature):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	case errors.Is(err, payment.ErrGateway):
		logrus.WithError(err).Warn("payment gateway failure")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	case errors.Is(err, service.ErrPaymentsDisabled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logrus.WithError(err).WithField("path", c.Request().URL.Path).Error("request timed out")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return writeHTTPError(c, he)
	}
	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Request().URL.Path,
	}).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func writeHTTPError(c echo.Context, he *echo.HTTPError) error {
	if he.Code >= http.StatusInternalServerError {
		logrus.WithError(he).Error("request failed")
		return c.JSON(he.Code, echo.Map{"error": "internal server error"})
	}
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	} else if he.Message != nil {
		msg = fmt.Sprint(he.Message)
	}
	return c.JSON(he.Code, echo.Map{"error": strings.ToLower(msg)})
}

// HTTPErrorHandler is installed as echo's central error handler.  It covers
// router errors (404/405), errors returned by middleware, and panics turned
// into errors by the Recover middleware.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var writeErr error
	if c.Request().Method == http.MethodHead {
		var he *echo.HTTPError
		code := http.StatusInternalServerError
		if errors.As(err, &he) {
			code = he.Code
		}
		writeErr = c.NoContent(code)
	} else {
		writeErr = respondError(c, err)
	}
	if writeErr != nil {
		logrus.WithError(writeErr).Warn("write error response failed")
	}
}
