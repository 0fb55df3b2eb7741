package middleware

import (
	"errors"
	"strings"

	"ordinary-note/internal/token"
	"ordinary-note/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string
	CtxUserEmailKey = "user_email" // string
)

// アクセストークン検証の約束
type AccessTokenVerifier interface {
	VerifyAccess(raw string) (token.AccessPayload, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// 期限切れだけAUTH_TOKEN_EXPIREDにして、クライアントがrefreshできるようにする。
func AuthJWT(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" {
				return usecase.ErrInvalidToken
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return usecase.ErrInvalidToken
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return usecase.ErrInvalidToken
			}

			payload, err := verifier.VerifyAccess(rawToken)
			if errors.Is(err, token.ErrExpired) {
				return usecase.ErrTokenExpired
			}
			if err != nil {
				return usecase.ErrInvalidToken.WithCause(err)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, payload.UserID)
			c.Set(CtxUserEmailKey, payload.Email)

			return next(c)
		}
	}
}

// AuthJWTの後ろでだけ使う
func UserIDFrom(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxUserIDKey).(string)
	return id, ok && id != ""
}
