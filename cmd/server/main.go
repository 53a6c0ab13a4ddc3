package main

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/fujit1113/ValueFromLog/internal/api"
	"github.com/fujit1113/ValueFromLog/internal/config"
	"github.com/fujit1113/ValueFromLog/internal/loader"
	"github.com/fujit1113/ValueFromLog/internal/repository"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	envPath := os.Getenv("ENV_FILE")
	if envPath == "" {
		envPath = ".env"
	}
	cfg, err := config.Load(envPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("failed to create directories")
	}

	// Optional column-rename rules next to the source exports. Environment
	// overrides win over the file.
	rules, err := loader.LoadSchemaRules(filepath.Join(cfg.DataDir, "schema.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load schema rules")
	}
	if rules != nil {
		rules.Apply(cfg)
		log.Info().Msg("applied schema.yaml column rules")
	}

	repo, err := repository.NewFileRepository(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}

	h := api.NewHandler(repo, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.Gzip())

	api.RegisterRoutes(e, h)

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().
		Str("version", Version).
		Str("buildTime", BuildTime).
		Str("addr", cfg.ServerAddr()).
		Str("dataDir", cfg.DataDir).
		Str("cacheDir", cfg.CacheDir).
		Int("toleranceMinutes", cfg.ToleranceMinutes).
		Msg("equipment log reconciliation server starting")

	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
