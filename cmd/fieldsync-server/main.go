package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/fieldops/fieldsync/internal/chat"
	chatrepo "github.com/fieldops/fieldsync/internal/chat/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/config"
	"github.com/fieldops/fieldsync/internal/eventbus"
	"github.com/fieldops/fieldsync/internal/outbox"
	outboxrepo "github.com/fieldops/fieldsync/internal/outbox/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/server"
	"github.com/fieldops/fieldsync/internal/session"
	"github.com/fieldops/fieldsync/internal/syncengine"
	"github.com/fieldops/fieldsync/internal/task"
	taskrepo "github.com/fieldops/fieldsync/internal/task/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/watch"
	"github.com/fieldops/fieldsync/pkg/clog"
	"github.com/fieldops/fieldsync/pkg/panicerr"
	"github.com/fieldops/fieldsync/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	var local *storage.LocalStorage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	case "sqlite":
		sqliteStore, err := storage.NewSQLiteStorage(context.Background(), env.StorageEnv.SQLitePath)
		if err != nil {
			slog.Error("failed to create sqlite storage", "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	default:
		local, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
		store = local
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories and services
	taskRepo := taskrepo.NewJSONRepository(store)
	outboxRepo := outboxrepo.NewJSONRepository(store)
	chatRepo := chatrepo.NewJSONRepository(store)

	queue := outbox.NewQueue(outboxRepo, bus)

	storeOpts := []task.StoreOption{}
	if env.TransitionsFile != "" {
		table, err := task.LoadTransitionTable(env.TransitionsFile)
		if err != nil {
			slog.Error("failed to load transition table", "file", env.TransitionsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("status transition enforcement enabled", "file", env.TransitionsFile)
		storeOpts = append(storeOpts, task.WithTransitionTable(table))
	}
	taskStore := task.NewStore(taskRepo, queue, bus, storeOpts...)
	chatSvc := chat.NewService(chatRepo, queue)
	sessions := session.NewContext(store, taskStore)

	if err := taskStore.SeedDefaults(context.Background(), time.Now().UnixMilli()); err != nil {
		slog.Error("failed to seed default tasks", "error", err)
		os.Exit(1)
	}

	// Setup sync engine
	engine := syncengine.New(queue,
		&syncengine.SimulatedTransport{Latency: env.SyncEnv.SimulatedLatency},
		syncengine.WithInterval(env.SyncEnv.Interval),
		syncengine.WithAttemptTimeout(env.SyncEnv.AttemptTimeout),
	)

	srv := server.NewServer(env, taskStore, queue, chatSvc, sessions, engine)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}))
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		if err := engine.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}))
	if local != nil {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			if err := (watch.New(local, bus)).Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}))
	}
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := p.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
