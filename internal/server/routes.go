package server

import (
	"time"

	"ordinary-note/internal/handler"
	"ordinary-note/internal/infra/ratelimit"
	"ordinary-note/internal/middleware"

	"github.com/labstack/echo/v4"
)

var (
	// /api/auth/* はIPごとに15分20回
	authRule = ratelimit.Rule{Name: "auth", Limit: 20, Window: 15 * time.Minute}
	// それ以外のAPIはIPごとに1分100回
	apiRule = ratelimit.Rule{Name: "api", Limit: 100, Window: time.Minute}
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Folder *handler.FolderHandler
	Note   *handler.NoteHandler
	Health *handler.HealthHandler
}

func (s *Server) registerRoutes(h Handlers) {
	requireAuth := middleware.AuthJWT(s.verifier)

	api := s.echo.Group("/api")
	api.GET("/health", h.Health.Health)

	authGroup := api.Group("/auth", s.rateLimit(authRule)...)
	h.Auth.RegisterRoutes(authGroup, requireAuth)

	folders := api.Group("/folders", append(s.rateLimit(apiRule), requireAuth)...)
	h.Folder.RegisterRoutes(folders)

	notes := api.Group("/notes", append(s.rateLimit(apiRule), requireAuth)...)
	h.Note.RegisterRoutes(notes)
}

// Redisが無ければ制限なし
func (s *Server) rateLimit(rule ratelimit.Rule) []echo.MiddlewareFunc {
	if s.limiter == nil {
		return nil
	}
	return []echo.MiddlewareFunc{middleware.RateLimit(s.limiter, rule, s.log)}
}
