package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/cache"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/question"
	"github.com/mind-engage/mindengage-quiz/internal/seed"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// backend is the question store plus whatever it was built on.
type backend struct {
	store   question.Store
	db      *sql.DB // nil for the memory driver
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{}
	if cfg.DBDriver == "memory" {
		b.store = question.NewInMemoryStore()
	} else {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		dbh, err := db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		b.db = dbh
		b.closers = append(b.closers, dbh.Close)
		b.store = question.NewSQLStore(dbh, cfg.DBDriver)
	}

	if cfg.RedisAddr != "" {
		kv, err := cache.NewRedisKV(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, kv.Close)
		b.store = cache.NewStore(b.store, kv, cfg.RedisTTL, log)
		log.Info("question cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.RedisTTL))
	}
	return b, nil
}

// openStore is openBackend for commands that only need the store.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (question.Store, func(), error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return b.store, b.Close, nil
}

func openBlobs(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	if cfg.BlobDriver == "minio" {
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return storage.NewFSStore(cfg.BlobBasePath)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}

	fan := events.Fanout{SiteID: cfg.SiteID}
	var eventLog *events.SQLLog
	if b.db != nil {
		eventLog = events.NewSQLLog(b.db)
		fan.Sinks = append(fan.Sinks, eventLog)
	}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer pub.Close()
		fan.Sinks = append(fan.Sinks, pub)
		logger.Info("publishing events", zap.String("queue", cfg.AMQPQueue))
	}

	var watcher *seed.Watcher
	if cfg.SeedFile != "" {
		f, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, b.store, f, logger); err != nil {
			return err
		}
		if cfg.SeedWatch {
			if watcher, err = seed.NewWatcher(cfg.SeedFile, b.store, logger); err != nil {
				return err
			}
		}
	}
	if cfg.SeedDemo {
		seeded, err := seed.ApplyDemoIfEmpty(ctx, b.store, logger)
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("store was empty, demo questions loaded")
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Deps: api.Deps{
			Store:           b.store,
			Grader:          grading.NewDefaultGrader(grading.WithMaxEditDistance(cfg.GradingMaxEdit)),
			Blobs:           blobs,
			Events:          fan,
			EventLog:        eventLog,
			DefaultQuestion: cfg.DefaultQuestion,
			Log:             logger,
		},
		Auth:        auth.NewAuthService(cfg.HMACSecret),
		Operator:    auth.Operator{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		CORSOrigins: cfg.CORSOrigins(),
		Ready: func(r *http.Request) error {
			if b.db == nil {
				return nil
			}
			return b.db.PingContext(r.Context())
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver),
		zap.String("blobs", cfg.BlobDriver))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx, 300*time.Millisecond) })
	}
	return g.Wait()
}
