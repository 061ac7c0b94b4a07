package handler // handler defines http handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/middleware"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// requestTimeout bounds the store calls of a single request.
const requestTimeout = 5 * time.Second

const maxBodyBytes = 1 << 20

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: name, Msg: "must be a positive integer"}
	}
	return id, nil
}

// currentCaller returns the caller stored by JWTAuth.  Routes that call it
// are always mounted behind JWTAuth; a missing caller is still a 401.
func currentCaller(c echo.Context) (service.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return service.Caller{}, service.ErrUnauthorized
	}
	return caller, nil
}

// bindStrict decodes a JSON body, rejecting unknown fields and trailing data,
// then runs the registered validator.
func bindStrict(c echo.Context, dst any) error {
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &service.ValidationError{Msg: "request body is empty"}
		}
		return &service.ValidationError{Msg: "invalid body: " + err.Error()}
	}
	if dec.More() {
		return &service.ValidationError{Msg: "invalid body: unexpected data after JSON object"}
	}
	return c.Validate(dst)
}

// bindValid is the lenient counterpart used for create requests.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return err
		}
		return &service.ValidationError{Msg: "invalid body"}
	}
	return c.Validate(dst)
}
