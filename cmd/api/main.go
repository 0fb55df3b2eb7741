package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordinary-note/internal/config"
	"ordinary-note/internal/handler"
	"ordinary-note/internal/infra/db"
	"ordinary-note/internal/infra/google"
	"ordinary-note/internal/infra/ratelimit"
	infraRepo "ordinary-note/internal/infra/repository"
	"ordinary-note/internal/logger"
	"ordinary-note/internal/middleware"
	"ordinary-note/internal/server"
	"ordinary-note/internal/token"
	"ordinary-note/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.GoEnv, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続 + マイグレーション
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, gormDB); err != nil {
		return err
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Leeway:        cfg.TokenLeeway,
	})
	if err != nil {
		return err
	}

	verifier, err := google.NewVerifier(ctx, cfg.GoogleClientID, cfg.GoogleVerifyTimeout)
	if err != nil {
		return err
	}

	//Repository
	users := infraRepo.NewUserGormRepository(gormDB)
	tokens := infraRepo.NewRefreshTokenRepository(gormDB)
	audits := infraRepo.NewAuditLogGormRepository(gormDB)
	folders := infraRepo.NewFolderGormRepository(gormDB)
	notes := infraRepo.NewNoteGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase
	authUC := usecase.NewAuthUsecase(usecase.AuthUsecaseDeps{
		Users:    users,
		Tokens:   tokens,
		Audits:   audits,
		Tx:       txm,
		Codec:    codec,
		Verifier: verifier,
		Log:      log,
	})
	folderUC := usecase.NewFolderUsecase(folders, nil, log)
	noteUC := usecase.NewNoteUsecase(notes, folders, nil, nil)

	//Redisがあればレート制限
	var limiter middleware.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable at startup, rate limiter will fail open")
		}
		limiter = ratelimit.New(rdb)
	} else {
		log.Info("REDIS_ADDR not set, rate limiting disabled")
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Verifier: codec,
		Limiter:  limiter,
		Log:      log,
		Handlers: server.Handlers{
			Auth:   handler.NewAuthHandler(authUC, cfg.RefreshTokenTTL, cfg.IsProduction()),
			Folder: handler.NewFolderHandler(folderUC, noteUC),
			Note:   handler.NewNoteHandler(noteUC),
			Health: handler.NewHealthHandler(time.Now()),
		},
	})

	go server.RunTokenCleanup(ctx, authUC.PurgeExpired, cfg.TokenCleanupInterval, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
