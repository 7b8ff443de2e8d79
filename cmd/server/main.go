package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	auth "github.com/goliatone/go-uav-auth"
	"github.com/goliatone/go-uav-auth/activitymap"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := auth.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := auth.NewZapLogger(cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Debug {
		fmt.Println("======= CONFIG ======")
		fmt.Println(print.MaybePrettyJSON(cfg.Masked()))
		fmt.Println("=====================")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := auth.OpenMySQL(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := auth.Migrate(ctx, db); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db, auth.WithQueryTimeout(cfg.Database.QueryTimeout))
	repo.MustValidate()

	tokens, err := auth.NewTokenService(cfg.TokenConfig(),
		auth.WithTokenLogger(logger.Named("tokens")),
	)
	if err != nil {
		return err
	}

	activity := activitymap.NewLoggerSink(logger.Named("activity"))

	provider := auth.NewUserProvider(repo.Users()).
		WithLogger(logger.Named("provider"))

	authenticator := auth.NewAuthenticator(provider, tokens,
		auth.WithAuthenticatorLogger(logger.Named("authenticator")),
		auth.WithAuthenticatorActivitySink(activity),
	)

	registerer := auth.NewRegisterUserHandler(repo,
		auth.WithRegisterTimeout(cfg.Register.Timeout),
		auth.WithRegisterHashid(cfg.Register.UseHashid),
		auth.WithRegisterLogger(logger.Named("register")),
		auth.WithRegisterActivitySink(activity),
	)

	controller := auth.NewAuthController(authenticator, registerer,
		auth.WithControllerLogger(logger.Named("http")),
		auth.WithControllerDebug(cfg.Debug),
	)

	app := auth.NewHTTPApp(auth.AppOptions{
		HTTP:   cfg.HTTP,
		DB:     db,
		Logger: logger.Named("http"),
	}, controller)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		errc <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
