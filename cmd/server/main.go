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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	actorrepo "food-rescue-platform/backend/internal/actor/repository"
	"food-rescue-platform/backend/internal/audit"
	auditrepo "food-rescue-platform/backend/internal/audit/repository"
	authhandler "food-rescue-platform/backend/internal/auth/handler"
	"food-rescue-platform/backend/internal/auth/lockout"
	authservice "food-rescue-platform/backend/internal/auth/service"
	"food-rescue-platform/backend/internal/config"
	"food-rescue-platform/backend/internal/db"
	dbmigrate "food-rescue-platform/backend/internal/db/migrate"
	healthhandler "food-rescue-platform/backend/internal/health/handler"
	"food-rescue-platform/backend/internal/legacy"
	revocationrepo "food-rescue-platform/backend/internal/revocation/repository"
	"food-rescue-platform/backend/internal/security"
	"food-rescue-platform/backend/internal/server"
	"food-rescue-platform/backend/internal/server/middleware"
	sessionrepo "food-rescue-platform/backend/internal/session/repository"
	sysparamrepo "food-rescue-platform/backend/internal/sysparam/repository"
	"food-rescue-platform/backend/internal/telemetry/otel"
)

const serviceName = "food-rescue-auth"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	// Schema is brought to the latest version before anything touches it.
	if err := dbmigrate.Run(cfg.DatabaseURL, "up"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbConn.Close()

	// One-time backfill for rows written before token hashing.
	if n, err := legacy.NewTokenMigrator(dbConn).Run(ctx); err != nil {
		log.Fatalf("legacy token backfill: %v", err)
	} else if n > 0 {
		log.Printf("legacy token backfill: migrated %d session rows", n)
	}

	actors := actorrepo.NewPostgresRepository(dbConn)
	sessions := sessionrepo.NewPostgresRepository(dbConn)
	revoked := revocationrepo.NewPostgresRepository(dbConn)
	params := sysparamrepo.NewPostgresRepository(dbConn)

	var lockoutStore lockout.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		lockoutStore = lockout.NewRedisStore(client, cfg.MaxLoginAttempts, cfg.Lockout())
		log.Printf("lockout: using redis store at %s", cfg.RedisAddr)
	} else {
		lockoutStore = lockout.NewMemoryStore(cfg.MaxLoginAttempts, cfg.Lockout())
		log.Println("lockout: using in-process store; counters are per instance")
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	issuer := authservice.NewTokenIssuer(params, tokens)
	auditLogger := audit.Tee(
		audit.NewLogger(auditrepo.NewPostgresRepository(dbConn), middleware.ClientIPFrom),
		otel.NewAuthEventLogger(providers.LoggerProvider),
	)

	svc := authservice.NewAuthService(actors, sessions, revoked, lockoutStore, hasher, tokens, issuer, auditLogger)
	router := server.NewRouter(
		authhandler.NewHandler(svc),
		healthhandler.NewHandler(dbConn),
		middleware.RequireAuth(tokens, sessions, actors),
		serviceName,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
