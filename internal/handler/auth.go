package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.  Gate resolves the
// optional bearer token on logout, which is mounted without JWTAuth.
type AuthHandler struct {
	Accounts Accounts
	Gate     Authenticator
}

func NewAuthHandler(accounts Accounts, gate Authenticator) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Gate: gate}
}

// ----- DTOs -----

type registerReq struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,max=72"`
	FullName string  `json:"full_name" validate:"required,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Role     string  `json:"role" validate:"omitempty,oneof=customer chef"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    *model.User `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

func sessionResp(u *model.User, s service.Session) authResp {
	return authResp{
		User:    u,
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, sess, err := h.Accounts.Register(ctx, service.Registration{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(u, sess))
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, sess, err := h.Accounts.Login(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(u, sess))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, sess, err := h.Accounts.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if errors.Is(err, service.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(u, sess))
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	access, err := h.Accounts.RefreshAccess(ctx, strings.TrimSpace(req.RefreshToken))
	if errors.Is(err, service.ErrUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when no body token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var callerID uint64
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") && h.Gate != nil {
		caller, err := h.Gate.Authenticate(ctx, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		if err != nil && !errors.Is(err, service.ErrUnauthorized) {
			return respondError(c, err)
		}
		callerID = caller.ID
	}

	// An empty or malformed body just means "no refresh token".
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" && callerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}

	if err := h.Accounts.Logout(ctx, raw, callerID); err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
