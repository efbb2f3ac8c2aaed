package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Timeout time.Duration
}

func NewAuthHandler(auth *service.AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Auth: auth, Timeout: timeout}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Signup: create user and return tokens immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Auth.Signup(ctx, service.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login: verify and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh: rotate the refresh token and issue a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Logout revokes the given refresh token, or every token of the bearer
// when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, optionalIdentity(c), req.RefreshToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's public profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	u, err := h.Auth.Me(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
