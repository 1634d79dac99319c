package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CeazyStore/internal/catalog"
	"CeazyStore/internal/checkout"
	"CeazyStore/internal/config"
	"CeazyStore/internal/storefront"
	"CeazyStore/pkg/kit"
)

const downloadTokenTTL = 24 * time.Hour

func main() {
	log := kit.NewLogger("storefront")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	secret := cfg.DownloadTokenSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("DOWNLOAD_TOKEN_SECRET not set; download links will not survive a restart")
	}

	store := buildStore(cfg, log)

	h := storefront.NewHandler(storefront.Deps{
		Log:      log,
		Service:  "storefront",
		Registry: prometheus.NewRegistry(),

		Store:    store,
		Sessions: checkout.NewStripeSessions(cfg.StripeSecretKey),
		Tokens:   checkout.NewTokenMaker(secret, downloadTokenTTL),

		PublicBaseURL:  cfg.PublicBaseURL,
		AdminTokenHash: cfg.AdminTokenHash,

		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		RateLimit:         cfg.RateLimit,
		RateWindowSeconds: cfg.RateWindowSeconds,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStore(cfg config.Config, log *zap.Logger) catalog.Store {
	if cfg.DatabaseURL == "" {
		return catalog.NewMemStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}

	pg := catalog.NewPostgresStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}
	if err := pg.Seed(ctx, catalog.DefaultSeed); err != nil {
		log.Fatal("seed albums", zap.Error(err))
	}

	return pg
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
