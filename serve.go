package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notedai/api/app"
	s3store "notedai/api/aws"
	"notedai/api/cloudflare"
	"notedai/api/config"
	"notedai/api/internal"
	"notedai/api/internal/service"
	"notedai/api/pkg/authcookie"
	"notedai/api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer zap.L().Sync()

			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides host.port)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	argon := security.New()

	store := newStore(cfg, argon)
	defer store.Close()

	// The API still starts, requests answer 503 until the database is back
	if _, err := store.Connect(ctx); err != nil {
		zap.L().Warn("Database is not reachable yet", zap.Error(err))
	}

	avatars, err := newAvatarStore(ctx, cfg)
	if err != nil {
		return err
	}

	d := &internal.Deps{
		Config:  cfg,
		Store:   store,
		Argon:   argon,
		Tokens:  security.NewTokenCodec(cfg.JWTSecret),
		Cookies: authcookie.Jar{Secure: cfg.Production() || cfg.SSLEnabled},
		Mailer:  service.NewMailer(cfg.Mail, cfg.BaseURL()),
		Avatars: avatars,
	}

	if cfg.Cloudflare.TurnstileEnabled {
		d.Turnstile = cloudflare.NewTurnstile(cfg.Cloudflare.TurnstileSecret)
	}

	router := app.NewRouter(ctx, d)

	go service.TokenCleanup(ctx, cfg.CleanupInterval, store)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.Int("port", cfg.Port), zap.Bool("ssl", cfg.SSLEnabled))

		if cfg.SSLEnabled {
			errCh <- srv.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped, %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newAvatarStore returns a nil store when no object storage is configured
func newAvatarStore(ctx context.Context, cfg *config.Config) (service.ObjectStore, error) {
	var (
		client *s3store.S3Client
		err    error
	)

	switch cfg.Storage {
	case "s3":
		client, err = s3store.NewS3(ctx, cfg.AWS)
	case "r2":
		client, err = cloudflare.NewR2(ctx, cfg.Cloudflare)
	default:
		zap.L().Warn("No object storage configured, avatar uploads are disabled")
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client, %w", cfg.Storage, err)
	}

	return service.NewAvatarStore(client), nil
}
