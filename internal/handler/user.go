package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

// UserHandler serves the caller's own account under /users/me.
type UserHandler struct {
	Accounts Accounts
}

func NewUserHandler(accounts Accounts) *UserHandler { return &UserHandler{Accounts: accounts} }

type profilePatchReq struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

// Me returns the caller's account.
func (h *UserHandler) Me(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.Me(ctx, caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe edits name, phone and avatar.  Unknown fields are rejected.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req profilePatchReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.UpdateMe(ctx, caller, repository.ProfilePatch{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Deactivate soft-deletes the caller's account.
func (h *UserHandler) Deactivate(c echo.Context) error {
	caller, err := currentCaller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Accounts.Deactivate(ctx, caller); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
