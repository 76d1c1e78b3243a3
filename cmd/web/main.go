// cmd/web/main.go
//
// Sydney Samil church site – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Install the Vault resolver when VAULT_ADDR is set, then load config.
//
//  4. Open the optional GeoLite2 database for request enrichment.
//
//  5. Build shared resources: lazy DB pool, settings store, directory
//     client, role gate, mail relay.
//
//  6. Router: request logging → panic recovery → security headers →
//     HTTPS redirect → request info → client principal.
//
//  7. Mount enabled components, /metrics, health probes, and the static
//     front end.
//
//  8. Serve until SIGINT/SIGTERM; SIGHUP reloads config in place.
//
// Large comment blocks are framed by blank "//" lines; inline comments use
// a single "//".
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sydneysamil/samil-web/internal/acl"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/component"
	"github.com/sydneysamil/samil-web/internal/config"
	"github.com/sydneysamil/samil-web/internal/database"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/mail"
	"github.com/sydneysamil/samil-web/internal/middleware"
	"github.com/sydneysamil/samil-web/internal/requestinfo"
	"github.com/sydneysamil/samil-web/internal/respond"
	"github.com/sydneysamil/samil-web/internal/server"
	"github.com/sydneysamil/samil-web/internal/site"
	"github.com/sydneysamil/samil-web/internal/vault"

	_ "github.com/sydneysamil/samil-web/components/contact"
	_ "github.com/sydneysamil/samil-web/components/profile"
	_ "github.com/sydneysamil/samil-web/components/settings"
	_ "github.com/sydneysamil/samil-web/components/themes"
)

const serverEnvPath = "/usr/local/etc/samil-web/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	logOut, err := logger.New(config.Root(), runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets + config ───────────────────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, logOut.Named("vault"))
		if err != nil {
			logOut.Fatalw("vault client", "err", err)
		}
		config.SetSecretResolver(vc)
	}
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalw("load config", "err", err)
	}

	if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
		logOut.Warnw("geoip disabled", "path", cfg.GeoIP.DBPath, "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 2.  Shared resources ───────────────────────────────────────────
	//
	db := database.NewLazy(database.ConfigOpener(config.Get))
	defer db.Close()

	dir := directory.New(
		directory.WithAuthorityURL(cfg.Directory.AuthorityURL),
		directory.WithGraphURL(cfg.Directory.GraphURL),
	)
	creds := func() directory.Credentials { return directory.CredentialsFrom(config.Get()) }

	deps := component.Deps{
		Config:    config.Get,
		Settings:  site.NewStore(db),
		Directory: dir,
		Gate:      acl.NewGate(dir, creds),
		Mail:      mail.NewRelay(func() mail.Settings { return mail.SettingsFrom(config.Get()) }),
	}

	//
	// ── 3.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logOut))
	r.Use(middleware.Recover)
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))
	r.Use(requestinfo.Enrich)
	r.Use(auth.Principal)
	r.MethodNotAllowed(respond.MethodNotAllowed)

	mounted, err := component.Mount(r, deps, cfg.ComponentEnabled)
	if err != nil {
		logOut.Fatalw("mount components", "err", err)
	}
	logOut.Infow("components mounted", "names", mounted)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		pctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := db.Ping(pctx); err != nil {
			logger.FromContext(req.Context()).Warnw("readiness probe failed", "err", err)
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if cfg.HTTP.StaticDir != "" {
		r.Handle("/*", server.Static(cfg.HTTP.StaticDir))
	} else {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			respond.JSON(w, http.StatusNotFound, respond.ErrorEnvelope{Error: "Not found."})
		})
	}

	//
	// ── 4.  Reload on SIGHUP ───────────────────────────────────────────
	//
	go watchReload(ctx, logOut)

	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, r), logOut); err != nil {
		logOut.Fatalw("http server", "err", err)
	}
}

// watchReload re-reads config on every SIGHUP until ctx ends.  Listen
// address, static dir, and the HTTPS flag are read once at start; every
// credential and mail setting follows the reload.
func watchReload(ctx context.Context, log *zap.SugaredLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := config.Reload(); err != nil {
				log.Errorw("config reload failed; keeping previous config", "err", err)
				continue
			}
			log.Infow("config reloaded")
		}
	}
}
