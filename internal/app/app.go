// Package app wires configuration into the running components: the local store,
// the optional remote gateway, the local repository, the session and the sync engine.
package app

import (
	"alcyxob/myhealth/internal/api"
	"alcyxob/myhealth/internal/config"
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/repository"
	"alcyxob/myhealth/internal/repository/mongo"
	"alcyxob/myhealth/internal/repository/postgres"
	"alcyxob/myhealth/internal/service"
	"alcyxob/myhealth/internal/storage"
	"alcyxob/myhealth/internal/syncer"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// App is the assembled application.
type App struct {
	Config   config.Config
	Repo     *local.Repository
	Sessions service.SessionService
	Engine   *syncer.Engine

	closers []func() error
}

// Build opens the configured stores and assembles the application. On error
// everything opened so far is closed again.
func Build(ctx context.Context, cfg config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	kv, closer, err := storage.Open(cfg.Store, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	a.closers = append(a.closers, closer.Close)
	a.Repo = local.New(storage.New(kv))

	gateway, err := a.openGateway(ctx, cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("connecting remote store: %w", err)
	}
	a.Engine = syncer.NewEngine(a.Repo, gateway)

	secret := cfg.JWT.Secret
	if secret == "" {
		// Tokens issued with it do not survive a restart
		secret = uuid.NewString()
		log.Println("WARN: jwt.secret not set, using an ephemeral secret")
	}
	a.Sessions = service.NewSessionService(a.Repo, secret, cfg.JWT.Expiration, a.syncAfterSignIn)
	return a, nil
}

func (a *App) openGateway(ctx context.Context, cfg config.RemoteConfig) (repository.Gateway, error) {
	switch cfg.Driver {
	case "":
		log.Println("INFO: No remote store configured, running offline")
		return nil, nil

	case "mongo":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db); err != nil {
			log.Printf("WARN: Failed to ensure MongoDB indexes: %v", err)
		}
		log.Printf("INFO: Connected to MongoDB database %s", cfg.Name)
		return mongo.NewGateway(db), nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		return postgres.NewGateway(pool), nil
	}
	return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
}

// syncAfterSignIn starts a sync in the background; sign-in never waits for it.
func (a *App) syncAfterSignIn(_ context.Context, user *domain.Identity) {
	go a.Engine.Sync(context.Background(), user)
}

// StartSync runs the periodic sync loop until ctx is done, if enabled.
func (a *App) StartSync(ctx context.Context) {
	if !a.Config.Sync.Enabled {
		log.Println("INFO: Periodic sync disabled")
		return
	}
	go a.Engine.Run(ctx, a.Sessions.Current, a.Config.Sync.Interval)
}

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	router := gin.Default()
	api.SetupRoutes(router, a.Repo, a.Sessions, a.Engine)
	return router
}

// Serve runs the HTTP API on the configured address until ctx is done, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.Config.Server.Address,
		Handler:      a.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", a.Config.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// In-flight requests get 5 seconds to finish
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exiting.")
	return nil
}

// Close releases the stores in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
