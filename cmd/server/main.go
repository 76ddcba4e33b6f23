package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jurifinder/legal-vault/internal/api"
	"github.com/jurifinder/legal-vault/internal/core/service"
	"github.com/jurifinder/legal-vault/internal/infrastructure/config"
	mongostore "github.com/jurifinder/legal-vault/internal/infrastructure/db/mongo"
	redisstore "github.com/jurifinder/legal-vault/internal/infrastructure/db/redis"
	"github.com/jurifinder/legal-vault/internal/infrastructure/http/handlers"
	"github.com/jurifinder/legal-vault/internal/infrastructure/identity"
	"github.com/jurifinder/legal-vault/internal/infrastructure/queue"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx); err != nil {
		// the logger may not be initialised yet
		os.Stderr.WriteString("legal-vault: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: logger.PrettyFor(cfg.Env)})

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db)
	profiles := mongostore.NewProfileRepository(db)
	roles := mongostore.NewRoleRepository(db)

	// --- Background workers ---
	workersCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	dispatcher := queue.NewDispatcher(cfg.Mail.Workers, identity.NewLogMailer(cfg.Mail.From, log), log)
	dispatcher.Start(workersCtx)

	hub := identity.NewHub()
	broadcaster := identity.NewRedisBroadcaster(rdb, hub, log)
	if err := broadcaster.Start(workersCtx); err != nil {
		return err
	}

	// --- Identity provider and services ---
	idp := identity.NewProvider(
		users,
		redisstore.NewSessionStore(rdb),
		redisstore.NewTokenStore(rdb),
		redisstore.NewThrottle(rdb, cfg.Auth.ResetThrottle),
		dispatcher,
		broadcaster,
		hub,
		identity.Options{
			JWTSecret:      cfg.Auth.JWTSecret,
			SessionTTL:     cfg.Auth.SessionTTL,
			AccessTokenTTL: cfg.Auth.AccessTokenTTL,
			OTPTTL:         cfg.Auth.OTPTTL,
			EmailChangeURL: cfg.PublicURL + service.EmailVerificationPath,
		},
		log,
	)

	resolvers := service.NewResolverFactory(idp, profiles, roles, log)

	e := api.NewRouter(api.Deps{
		Accounts:  service.NewAccountService(idp, profiles, resolvers, cfg.PublicURL, log),
		Documents: service.NewDocumentService(redisstore.NewDocumentCache(rdb), redisstore.NewSearchHistory(rdb), log),
		Admin:     service.NewAdminService(idp, profiles, log),
		Resolvers: resolvers,
		Tokens:    idp,
		Health: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		ResolveTimeout: cfg.Auth.ResolveTimeout,
		LoginRate:      cfg.Auth.LoginRate,
		SecureCookies:  cfg.Auth.CookieSecure,
		Log:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	return nil
}
