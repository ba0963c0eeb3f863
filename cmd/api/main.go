package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cartrepo "github.com/oakline/storefront/internal/cart/repo"
	catalogrepo "github.com/oakline/storefront/internal/catalog/repo"
	"github.com/oakline/storefront/internal/identity"
	identityrepo "github.com/oakline/storefront/internal/identity/repo"
	orderrepo "github.com/oakline/storefront/internal/order/repo"
	"github.com/oakline/storefront/internal/router"
	"github.com/oakline/storefront/pkg/database"
	"github.com/oakline/storefront/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting storefront api")

	// the signing key is required; refusing to start beats issuing
	// unverifiable tokens
	tokens := identity.TokenConfigFromEnv()
	if len(tokens.SecretKey) == 0 {
		sugar.Fatal("JWT_SECRET_KEY is not set")
	}

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// create tables on first run
	ctx := context.Background()
	if err := identityrepo.NewUserRepo(db).EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	if err := catalogrepo.NewProductRepo(db).EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure products table: %v", err)
	}
	if err := cartrepo.NewCartRepo(db).EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure carts tables: %v", err)
	}
	if err := orderrepo.NewOrderRepo(db).EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure orders tables: %v", err)
	}

	// graceful shutdown
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8420"
	}

	// mount http server
	handler := router.RegisterRoutes(sugar, db, tokens)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-runCtx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ping db once more
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
