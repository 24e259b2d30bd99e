package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"communeo.org/internal/account"
	"communeo.org/internal/auth"
	"communeo.org/internal/commune"
	"communeo.org/internal/config"
	"communeo.org/internal/content"
	"communeo.org/internal/httpapi"
	"communeo.org/internal/obs"
	"communeo.org/internal/report"
	"communeo.org/internal/scope"
	"communeo.org/internal/store/pg"
)

var (
	version = "1.2.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		probe    httpapi.ReadyProbe
		accounts account.Store
		communes commune.Registry
		contents content.Store
		reports  report.Store
	)
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		probe = httpapi.ReadyProbe{DB: store.DB()}
		accounts = store.Accounts()
		communes = store.Communes()
		contents = store.Content()
		reports = store.Reports()
	} else {
		// DSN-less development mode runs fully in memory.
		log.Println("COMMUNEO_PG_DSN not set, using in-memory stores")
		accounts = account.NewInMemory()
		communes = commune.NewInMemory()
		contents = content.NewInMemory()
		reports = report.NewInMemory()
	}

	resolver := commune.NewResolver(communes)
	authSvc := auth.NewService(accounts,
		auth.WithSecret(cfg.AuthSecret),
		auth.WithIssuer(cfg.AuthIssuer),
		auth.WithAccessTTL(cfg.AccessTTL),
	)

	if err := bootstrapSuperadmin(cfg, accounts); err != nil {
		log.Fatalf("bootstrap superadmin: %v", err)
	}

	api := httpapi.New(httpapi.Deps{
		Auth:     authSvc,
		Content:  content.NewService(contents, resolver),
		Reports:  report.NewService(reports, resolver),
		Communes: communes,
		Accounts: accounts,
		Resolver: resolver,
	}, probe, version, httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting communeo-api %s on %s (%s)", version, srv.Addr, cfg.Env)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

// bootstrapSuperadmin ensures a first superadmin exists on fresh deployments.
// Credentials come from the environment; the account is only created when the
// email is not taken, so redeploys are idempotent.
func bootstrapSuperadmin(cfg *config.Config, accounts account.Store) error {
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := accounts.FindByEmail(ctx, cfg.BootstrapEmail); err == nil {
		return nil
	} else if !errors.Is(err, account.ErrNotFound) {
		return err
	}

	hash, err := account.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return err
	}
	acc := &account.Account{
		Email:        cfg.BootstrapEmail,
		PasswordHash: hash,
		Role:         scope.RoleSuperadmin,
		Active:       true,
	}
	if err := accounts.Create(ctx, acc); err != nil {
		return err
	}
	log.Printf("Bootstrapped superadmin %s", acc.Email)
	return nil
}
