// Command nexa is the Nexa Media Server process entrypoint: load
// configuration, open the database, wire every subsystem, and serve until
// signalled to stop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/auth"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/config"
	"nexamediaserver/internal/graphqlapi"
	"nexamediaserver/internal/hub"
	"nexamediaserver/internal/hubsource"
	"nexamediaserver/internal/httpapi"
	"nexamediaserver/internal/imaging"
	"nexamediaserver/internal/jobs"
	"nexamediaserver/internal/logger"
	"nexamediaserver/internal/scan"
	"nexamediaserver/internal/streaming"
	"nexamediaserver/internal/workers"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		return 1
	}

	logger.Init(logger.ParseLevel(cfg.App.LogLevel))

	db, err := catalog.Open(cfg)
	if err != nil {
		log.Error().Err(err).Msg("opening database")
		return 1
	}
	if err := db.AutoMigrate(auth.AuthTables()...); err != nil {
		log.Error().Err(err).Msg("migrating auth schema")
		return 1
	}
	if err := db.AutoMigrate(jobs.EntryTable()...); err != nil {
		log.Error().Err(err).Msg("migrating jobs schema")
		return 1
	}
	if err := db.AutoMigrate(hub.ConfigurationTable()...); err != nil {
		log.Error().Err(err).Msg("migrating hub schema")
		return 1
	}

	sections := catalog.NewLibrarySectionRepository(db)
	items := catalog.NewItemRepository(db)
	parts := catalog.NewMediaPartRepository(db)
	relations := catalog.NewRelationRepository(db)
	settings := catalog.NewSettingsRepository(db)

	registry := buildAgentRegistry(cfg)

	authStore := auth.NewGormStore(db)
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret)
	authService := auth.NewService(authStore, tokenIssuer, cfg.Auth.SessionLifetimeDays)

	jobStore := jobs.NewGormStore(db)
	bus := jobs.NewBus()
	scheduler := jobs.NewScheduler(jobStore, bus, time.Duration(cfg.Jobs.FlushIntervalMs)*time.Millisecond)
	downstream := scan.NewSchedulerDownstream(scheduler)

	hubResolver := hub.NewResolver(hubsource.New(db))
	hubConfig := hub.NewGormConfigurationStore(db)

	gqlResolver := graphqlapi.NewResolver(
		sections, items, parts, relations, settings,
		hubResolver, hubConfig,
		scheduler, jobStore,
		registry, agents.GenreMap{}, agents.TagPolicy{},
		"",
	)

	registerWorkers(scheduler, cfg, sections, items, parts, registry, downstream, gqlResolver, jobStore)

	streamManager := streaming.NewManager(cfg.Streaming.MaxConcurrentTranscodes, cfg.Streaming.IdleTimeoutSeconds)
	imageCache := imaging.NewCache(cfg.Imaging.CacheDir, imaging.NewFilesystemResolver())

	deps := httpapi.Dependencies{
		Config:        cfg,
		AuthService:   authService,
		AuthStore:     authStore,
		MediaParts:    parts,
		StreamManager: streamManager,
		ImageCache:    imageCache,
		TrickplayDir:  cfg.Imaging.CacheDir,
		Acceleration:  streaming.AccelerationNone,
		Resolver:      gqlResolver,
		StartedAt:     time.Now(),
	}

	engine := httpapi.Setup(deps)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTP.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server exited unexpectedly")
			return 1
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			return 1
		}
	}

	return 0
}

// buildAgentRegistry wires the always-available local agents plus any
// remote metadata agents whose credentials are present in configuration.
func buildAgentRegistry(cfg *config.Configuration) *agents.Registry {
	registry := agents.NewRegistry(
		agents.NewNFOAgent(),
		agents.NewFFprobeAgent(""),
		agents.NewFilenameAgent(),
	)

	remote := agents.NewRemoteClient(agents.RemoteMetadataHttpOptions{
		Timeout:     time.Duration(cfg.RemoteMetadata.TimeoutSeconds) * time.Second,
		MaxRequests: cfg.RemoteMetadata.MaxRequests,
		Per:         time.Duration(cfg.RemoteMetadata.PerSeconds) * time.Second,
	})

	if cfg.RemoteMetadata.TMDBAPIKey != "" {
		if tmdb, err := agents.NewTMDBAgent(cfg.RemoteMetadata.TMDBAPIKey, time.Duration(cfg.RemoteMetadata.TimeoutSeconds)*time.Second); err == nil {
			registry.Register(tmdb)
		} else {
			log.Warn().Err(err).Msg("skipping tmdb agent")
		}
	}

	if cfg.RemoteMetadata.SubsonicBaseURL != "" {
		subsonic, err := agents.NewSubsonicAgent(agents.SubsonicOptions{
			BaseURL:    cfg.RemoteMetadata.SubsonicBaseURL,
			User:       cfg.RemoteMetadata.SubsonicUser,
			Password:   cfg.RemoteMetadata.SubsonicPassword,
			ClientName: cfg.App.Name,
		}, remote)
		if err == nil {
			registry.Register(subsonic)
		} else {
			log.Warn().Err(err).Msg("skipping subsonic agent")
		}
	}

	return registry
}

// registerWorkers binds a Worker to every jobs.Type the scheduler accepts,
// per §4.E.
func registerWorkers(
	scheduler *jobs.Scheduler,
	cfg *config.Configuration,
	sections catalog.LibrarySectionRepository,
	items catalog.ItemRepository,
	parts catalog.MediaPartRepository,
	registry *agents.Registry,
	downstream scan.Downstream,
	gqlResolver *graphqlapi.Resolver,
	jobStore jobs.Store,
) {
	scheduler.RegisterWorker(jobs.TypeLibraryScan, &scan.Worker{
		Sections:   sections,
		Items:      items,
		Parts:      parts,
		Registry:   registry,
		Downstream: downstream,
	})

	scheduler.RegisterWorker(jobs.TypeMetadataRefresh, &workers.MetadataRefreshWorker{
		Items:    items,
		Resolver: gqlResolver,
	})

	scheduler.RegisterWorker(jobs.TypeFileAnalysis, &workers.FileAnalysisWorker{
		Items:    items,
		Resolver: gqlResolver,
	})

	trickplayOpts := imaging.TrickplayOptions{
		SnapshotIntervalMs: cfg.Trickplay.SnapshotIntervalMs,
		MaxSnapshotWidth:   cfg.Trickplay.MaxSnapshotWidth,
		JpegQuality:        cfg.Trickplay.JpegQuality,
		SkipExisting:       cfg.Trickplay.SkipExisting,
	}
	scheduler.RegisterWorker(jobs.TypeTrickplayGen, &workers.TrickplayWorker{
		Items:        items,
		Parts:        parts,
		Generator:    imaging.NewTrickplayGenerator("", trickplayOpts),
		TrickplayDir: cfg.Imaging.CacheDir,
	})

	scheduler.RegisterWorker(jobs.TypeImageGeneration, &workers.ImageGenerationWorker{
		Items:  items,
		Cache:  imaging.NewCache(cfg.Imaging.CacheDir, imaging.NewFilesystemResolver()),
		Widths: []int{200, 400, 800},
	})

	scheduler.RegisterWorker(jobs.TypeNotificationPurge, jobs.NewRetentionWorker(jobStore, cfg.Jobs.HistoryRetentionDays))
}
