package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"musicweb/internal/app"
	"musicweb/internal/botapi"
	"musicweb/internal/config"
	"musicweb/internal/logging"
	"musicweb/internal/service"
	"musicweb/internal/session"
	"musicweb/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "musicweb: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return runServe()
	}

	switch args[0] {
	case "serve":
		return runServe()
	case "init-db":
		return runInitDB()
	case "bootstrap":
		return runBootstrap(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runServe() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	botClient := botapi.NewClient(cfg, logger)
	server := app.NewServer(
		cfg,
		logger,
		session.NewCookieStore(cfg),
		service.NewLinkService(logger, botClient),
		service.NewLibraryService(logger, store),
		store.Ping,
		func(ctx context.Context) error { return botapi.CheckConnectivity(ctx, cfg) },
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("musicweb serving", "addr", cfg.ListenAddr, "bot_api", cfg.BotAPIBase, "database", cfg.DatabasePath)

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		logger.Info("shutting down musicweb")
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// runInitDB creates the bot's schema in an empty database file so the read
// endpoints work in development before the bot has ever run.
func runInitDB() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateFixtureSchema(context.Background()); err != nil {
		return err
	}

	fmt.Printf("schema created at %s\n", cfg.DatabasePath)
	return nil
}

func runBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var envPath string
	fs.StringVar(&envPath, "env-file", ".env", "path to output .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	lines := []string{
		"LISTEN_ADDR=" + cfg.ListenAddr,
		"ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","),
		"BOT_HTTP_API_BASE=" + cfg.BotAPIBase,
		"BOT_HTTP_API_KEY=" + cfg.BotAPIKey,
		"BOT_HTTP_TIMEOUT_MS=" + strconv.FormatInt(cfg.BotTimeout.Milliseconds(), 10),
		"DATABASE_PATH=" + cfg.DatabasePath,
		"SESSION_SECRET=" + cfg.SessionSecret,
		"SESSION_COOKIE_NAME=" + cfg.SessionCookieName,
		"SESSION_MAX_AGE_DAYS=" + strconv.Itoa(int(cfg.SessionMaxAge/(24*time.Hour))),
		"DATA_DIR=" + cfg.DataDir,
		"LOG_LEVEL=" + cfg.LogLevel,
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", envPath)
	return nil
}
