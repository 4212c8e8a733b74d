package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/api"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/config"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/docstore"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geocode"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/layers"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/render"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Path to YAML config file" default:"config.yaml"`
	Port    int    `short:"p" long:"port" description:"Override listen port"`
	DataDir string `short:"d" long:"data-dir" description:"Override data directory"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// .env is optional, absence is not an error
	_ = godotenv.Load()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Config).Msg("failed to load configuration")
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.DataDir != "" {
		cfg.Storage.DataDir = opts.DataDir
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	setupLogging(cfg)

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Core wiring: event bus, state store, websocket hub feeding the
	// browser-side renderer, layer manager, bounded undo history.
	eventBus := bus.New()
	store := state.New()
	hub := api.NewHub()
	renderer := render.NewWebRenderer(hub)
	mgr := layers.NewManager(store, eventBus, renderer)
	hist := history.New(mgr, cfg.Storage.UndoDepth)

	docs, err := openDocStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open document store")
	}
	defer docs.Close()

	restoreWorkspace(ctx, docs, mgr)

	saver := docstore.NewSaver(docs, store, eventBus,
		time.Duration(cfg.Storage.AutoSaveSeconds)*time.Second)
	go saver.Run(ctx)

	var geocoder *geocode.Client
	if cfg.Geocoding.SubscriptionKey != "" {
		geocoder = geocode.NewClient(cfg.Geocoding.SubscriptionKey,
			geocode.WithDelay(time.Duration(cfg.Geocoding.DelayMs)*time.Millisecond))
	} else {
		log.Warn().Msg("AZURE_MAPS_KEY not set, geocoding disabled")
	}
	webhooks := api.NewWebhookDispatcher(eventBus)

	// Mirror workspace events to connected browsers so panels outside the
	// map (layer tree, history controls) stay in sync with render ops.
	eventBus.SubscribeAll(func(ev bus.Event) {
		hub.Broadcast(struct {
			Type  string    `json:"type"`
			Event bus.Event `json:"event"`
		}{Type: "notify", Event: ev})
	})

	h := api.NewHandler(mgr, hist, store, docs, saver, geocoder, webhooks)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
		if cfg.Server.AllowOrigins != "" {
			origins = strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, h, hub)

	s := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().
			Str("version", Version).
			Str("buildTime", BuildTime).
			Str("addr", cfg.Addr()).
			Str("dataDir", cfg.Storage.DataDir).
			Str("storage", cfg.Storage.Backend).
			Msg("server starting")
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// Flush unsaved work before the listener goes away.
	saver.SaveIfDirty(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Logging.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openDocStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.Storage.Backend {
	case "duckdb":
		return docstore.NewDuckStore(cfg.DuckDBPath())
	default:
		return docstore.NewFileStore(cfg.WorkspacePath())
	}
}

// restoreWorkspace loads the last saved document, if any, into the
// running workspace. A fresh data directory is not an error.
func restoreWorkspace(ctx context.Context, docs docstore.Store, mgr *layers.Manager) {
	doc, err := docs.Load(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			log.Info().Msg("no saved workspace, starting empty")
			return
		}
		log.Error().Err(err).Msg("failed to load saved workspace")
		return
	}
	mgr.ImportLayers(doc)
	log.Info().Int("layers", len(doc.Layers)).Msg("workspace restored")
}
