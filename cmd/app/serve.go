package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/task-workflow/internal/auth"
	"github.com/BuzzLyutic/task-workflow/internal/config"
	"github.com/BuzzLyutic/task-workflow/internal/handler"
	"github.com/BuzzLyutic/task-workflow/internal/notify"
	"github.com/BuzzLyutic/task-workflow/internal/service"
	"github.com/BuzzLyutic/task-workflow/internal/worker"
	"github.com/BuzzLyutic/task-workflow/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	authn, err := newAuthenticator(ctx, cfg)
	if err != nil {
		return err
	}

	handlers := []worker.Handler{worker.NewStartRecorder(store)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		handlers = append(handlers, notify.NewRedisNotifier(rdb, cfg.RedisChannel))
	} else {
		handlers = append(handlers, notify.NewLogNotifier(logger))
	}

	// воркеры живут дольше HTTP-сервера, чтобы дочитать очередь
	pool := worker.NewPool(logger, cfg.WorkerCount, cfg.EffectQueueSize, handlers...)
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()

	policy := auth.NewRolePolicy(cfg.ElevatedRoles)
	engine := workflow.NewEngine(store, policy, pool, logger)
	router := handler.NewRouter(handler.RouterConfig{
		Tasks:         handler.NewTaskHandler(service.NewTaskService(store, policy), engine, logger),
		Projects:      handler.NewProjectHandler(service.NewProjectService(store), logger),
		Authenticator: authn,
		Logger:        logger,
	})

	srv := &http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

func newAuthenticator(ctx context.Context, cfg config.Config) (auth.Authenticator, error) {
	if cfg.AuthMode == config.AuthModeOIDC {
		return auth.NewOIDCAuthenticator(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID, cfg.RolesClaim)
	}
	return auth.HeaderAuthenticator{}, nil
}
