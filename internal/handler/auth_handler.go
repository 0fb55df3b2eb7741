package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ordinary-note/internal/middleware"
	"ordinary-note/internal/usecase"
	"ordinary-note/internal/validator"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

// AuthHandlerが使うusecaseの約束
type AuthService interface {
	LoginWithGoogle(ctx context.Context, credential string) (*usecase.LoginResult, error)
	RotateRefreshToken(ctx context.Context, refreshTokenPlain string) (*usecase.TokenPair, error)
	RevokeRefreshToken(ctx context.Context, refreshTokenPlain string) error
	GetUserByID(ctx context.Context, userID string) (*usecase.AuthUser, error)
}

type AuthHandler struct {
	auth         AuthService
	refreshTTL   time.Duration // refresh cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(auth AuthService, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

type loginResponse struct {
	AccessToken string           `json:"accessToken"`
	User        usecase.AuthUser `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type meResponse struct {
	User usecase.AuthUser `json:"user"`
}

// /api/auth 配下のルートを登録。requireAuthはlogoutとmeだけ。
func (h *AuthHandler) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/google", h.googleLogin)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout, requireAuth)
	g.GET("/me", h.me, requireAuth)
}

// POST /api/auth/google
func (h *AuthHandler) googleLogin(c echo.Context) error {
	var req validator.GoogleLoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if err := validator.ValidateGoogleLogin(req); err != nil {
		return err
	}

	out, err := h.auth.LoginWithGoogle(auditContext(c), req.Credential)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, out.Tokens.RefreshToken)
	return c.JSON(http.StatusOK, loginResponse{AccessToken: out.Tokens.AccessToken, User: out.User})
}

// POST /api/auth/refresh
func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.clearRefreshCookie(c)
		return usecase.ErrRefreshInvalid
	}

	pair, err := h.auth.RotateRefreshToken(auditContext(c), cookie.Value)
	if err != nil {
		//使えないcookieは消しておく
		if errors.Is(err, usecase.ErrRefreshInvalid) {
			h.clearRefreshCookie(c)
		}
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(http.StatusOK, refreshResponse{AccessToken: pair.AccessToken})
}

// POST /api/auth/logout
func (h *AuthHandler) logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.auth.RevokeRefreshToken(auditContext(c), cookie.Value); err != nil {
			return err
		}
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GET /api/auth/me
func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return usecase.ErrInvalidToken
	}

	user, err := h.auth.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if user == nil {
		return usecase.NewNotFoundError("User")
	}
	return c.JSON(http.StatusOK, meResponse{User: *user})
}

// 監査ログ用に接続元をctxへ載せる
func auditContext(c echo.Context) context.Context {
	req := c.Request()
	return usecase.WithRequestMeta(req.Context(), usecase.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: req.UserAgent(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.refreshTTL.Seconds()),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
