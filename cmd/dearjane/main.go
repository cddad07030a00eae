package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/dearjane/internal/cache"
	"github.com/dropDatabas3/dearjane/internal/config"
	httpx "github.com/dropDatabas3/dearjane/internal/http"
	"github.com/dropDatabas3/dearjane/internal/metrics"
	"github.com/dropDatabas3/dearjane/internal/oauth2"
	"github.com/dropDatabas3/dearjane/internal/observability/logger"
	"github.com/dropDatabas3/dearjane/internal/store/jwtgen"
	memorystore "github.com/dropDatabas3/dearjane/internal/store/memory"
	pgstore "github.com/dropDatabas3/dearjane/internal/store/pg"
)

var version = "dev"

func main() {
	// .env es opcional; si no está, seguimos con el entorno del proceso.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "dearjane",
		Short: "OAuth 2.0 authorization server (RFC 6749/6750/7662/7009)",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("DEARJANE_CONFIG"), "ruta al YAML de configuración")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta los endpoints OAuth sobre HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Crea un client y un user de desarrollo en el storage postgres configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cfgPath)
		},
	}

	ver := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serve, seed, ver)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "dearjane"})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, cleanup, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := oauth2.NewServer(oauth2.ServerConfig{
		Model:               model,
		AuthorizeOptions:    authorizeOptions(cfg),
		TokenOptions:        tokenOptions(cfg),
		AuthenticateOptions: nil,
	})
	if err != nil {
		return err
	}

	if err := metrics.Register(nil); err != nil {
		return err
	}

	router := httpx.NewRouter(httpx.Deps{OAuth: srv})
	log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("storage", cfg.Storage.Driver))
	return httpx.Run(ctx, cfg.Server.Addr, router)
}

func runSeed(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("seed requiere storage postgres (driver actual: %s)", cfg.Storage.Driver)
	}
	ctx := context.Background()
	store, err := pgstore.New(ctx, cfg.Storage.Postgres.DSN, pgstore.Config{MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns})
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	user, err := store.CreateUser(ctx, &oauth2.User{Username: "dev"}, "devpass")
	if err != nil {
		return err
	}
	client := &oauth2.Client{
		ID:           "dev-client",
		Grants:       []string{oauth2.GrantAuthorizationCode, oauth2.GrantPassword, oauth2.GrantClientCredentials, oauth2.GrantRefreshToken, oauth2.GrantImplicit},
		RedirectURIs: []string{"http://localhost:3000/callback"},
	}
	if err := store.CreateClient(ctx, client, "dev-secret", user.ID, []string{"read", "write"}); err != nil {
		return err
	}
	fmt.Println("seed ok: client=dev-client secret=dev-secret user=dev pass=devpass")
	return nil
}

// buildModel arma el Model según config: memoria (con cache memory/redis)
// o postgres, con el wrapper de tokens firmados si está activo.
func buildModel(ctx context.Context, cfg *config.Config) (oauth2.Model, func(), error) {
	var (
		backend jwtgen.Backend
		cleanup = func() {}
	)
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pgstore.New(ctx, cfg.Storage.Postgres.DSN, pgstore.Config{MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		backend = store
		cleanup = store.Close
	default:
		c, err := cache.New(cache.Config{
			Kind:   cfg.Cache.Kind,
			Addr:   cfg.Cache.Redis.Addr,
			DB:     cfg.Cache.Redis.DB,
			Prefix: cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		backend = memorystore.New(c)
		cleanup = func() { _ = c.Close() }
	}

	if cfg.OAuth.SignedTokens.Enabled {
		return jwtgen.New(backend, cfg.OAuth.SignedTokens.Issuer, []byte(cfg.OAuth.SignedTokens.HS256)), cleanup, nil
	}
	return backend, cleanup, nil
}

func authorizeOptions(cfg *config.Config) oauth2.Options {
	opts := oauth2.Options{}
	if cfg.OAuth.AccessTokenLifetime > 0 {
		opts["accessTokenLifetime"] = cfg.OAuth.AccessTokenLifetime
	}
	if cfg.OAuth.AuthorizationCodeLifetime > 0 {
		opts["authorizationCodeLifetime"] = cfg.OAuth.AuthorizationCodeLifetime
	}
	if cfg.OAuth.AllowEmptyState {
		opts["allowEmptyState"] = true
	}
	return opts
}

func tokenOptions(cfg *config.Config) oauth2.Options {
	opts := oauth2.Options{}
	if cfg.OAuth.AccessTokenLifetime > 0 {
		opts["accessTokenLifetime"] = cfg.OAuth.AccessTokenLifetime
	}
	if cfg.OAuth.RefreshTokenLifetime > 0 {
		opts["refreshTokenLifetime"] = cfg.OAuth.RefreshTokenLifetime
	}
	if cfg.OAuth.DisableRefreshRotation {
		opts["alwaysIssueNewRefreshToken"] = false
	}
	return opts
}
