package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ordinary-note/internal/config"
	"ordinary-note/internal/handler"
	"ordinary-note/internal/middleware"
	"ordinary-note/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	echo     *echo.Echo
	cfg      config.Config
	verifier middleware.AccessTokenVerifier
	limiter  middleware.RateLimiter
	log      logrus.FieldLogger
}

type Deps struct {
	Config   config.Config
	Verifier middleware.AccessTokenVerifier
	// nilならレート制限なし
	Limiter  middleware.RateLimiter
	Log      logrus.FieldLogger
	Handlers Handlers
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)
	e.IPExtractor = ipExtractor(d.Config, d.Log)

	s := &Server{
		echo:     e,
		cfg:      d.Config,
		verifier: d.Verifier,
		limiter:  d.Limiter,
		log:      d.Log,
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Config.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: d.Config.RequestTimeout,
		ErrorHandler: func(err error, c echo.Context) error {
			//usecaseで変換済みでなければ504にする
			var appErr *usecase.AppError
			if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &appErr) {
				return usecase.ErrUpstreamFailed.WithCause(err)
			}
			return err
		},
	}))

	s.registerRoutes(d.Handlers)
	return s
}

// RealIPの取り方。既定は接続元アドレスのみで、XFFは設定したプロキシ経由のときだけ見る。
func ipExtractor(cfg config.Config, log logrus.FieldLogger) echo.IPExtractor {
	nets, err := cfg.TrustedProxyNets()
	if err != nil {
		log.WithError(err).Warn("ignoring TRUSTED_PROXIES")
		return echo.ExtractIPDirect()
	}
	if len(nets) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range nets {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// テスト用
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Shutdownが呼ばれるまでブロックする
func (s *Server) Start() error {
	s.log.WithField("addr", s.cfg.Addr()).Info("http server listening")
	if err := s.echo.Start(s.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// 期限切れrefresh tokenの定期削除。ctxが終わるまで動く。
func RunTokenCleanup(ctx context.Context, purge func(context.Context) (int64, error), interval time.Duration, log logrus.FieldLogger) {
	run := func() {
		if _, err := purge(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("token cleanup failed")
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
