// Package app wires TripTree's storage, services and HTTP surface together
// and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wadjakorntonsri/triptree/pkg/adapters/handler"
	"github.com/wadjakorntonsri/triptree/pkg/adapters/objectstore"
	"github.com/wadjakorntonsri/triptree/pkg/adapters/ratelimit"
	"github.com/wadjakorntonsri/triptree/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/core/services"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	log     logging.Logger
	store   *sqldb.Store
	redis   *redis.Client
	handler http.Handler
}

// New opens the database (migrating it), picks the rate-limit store and
// builds the router. Uploads are wired only when a bucket is configured.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := sqldb.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	a := &App{cfg: cfg, log: log, store: store}

	var hits ratelimit.Store = ratelimit.NewMemoryStore(nil)
	if cfg.RedisURL != "" {
		rc, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		a.redis = rc
		hits = ratelimit.NewRedisStore(rc)
	}
	limiter := ratelimit.New(hits, cfg.AuthRateLimit, cfg.AuthRateWindow, "auth")

	svc := handler.Services{
		Auth:     services.NewAuthService(store.Users()),
		Profiles: services.NewProfileService(store.Users(), store.Links(), store.Places()),
		Links:    services.NewLinkService(store.Links()),
		Places:   services.NewPlaceService(store.Places()),
	}
	if cfg.UploadsEnabled() {
		s3, err := objectstore.NewS3Store(ctx, objectstore.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("object store init error: %w", err)
		}
		svc.Uploads = services.NewUploadService(s3)
	}

	a.handler = handler.NewRouter(cfg, svc, limiter, log)

	log.Info(ctx, "app ready",
		"db", store.Dialect(),
		"redis", a.redis != nil,
		"uploads", cfg.UploadsEnabled(),
		"google", cfg.GoogleEnabled(),
	)
	return a, nil
}

func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP until ctx is cancelled, then drains open requests.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "server starting", "port", a.cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info(ctx, "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
