package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/owenkobasz/cyclone/docs"
	"github.com/owenkobasz/cyclone/pkg/aiseed"
	"github.com/owenkobasz/cyclone/pkg/config"
	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/engine/assembler"
	"github.com/owenkobasz/cyclone/pkg/engine/routingalgorithm"
	"github.com/owenkobasz/cyclone/pkg/engine/sampler"
	"github.com/owenkobasz/cyclone/pkg/engine/synthesizer"
	"github.com/owenkobasz/cyclone/pkg/graphhopper"
	"github.com/owenkobasz/cyclone/pkg/kv"
	"github.com/owenkobasz/cyclone/pkg/logger"
	"github.com/owenkobasz/cyclone/pkg/osmparser"
	"github.com/owenkobasz/cyclone/pkg/server/rest"
	"github.com/owenkobasz/cyclone/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "config file, defaults to ./config.yaml or ./configs/config.yaml")
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides server.listen_addr")
	mapFile    = flag.String("f", "", "openstreetmap pbf file for the road graph, overrides graph.pbf_file")
	kvDir      = flag.String("kv", "", "graph store directory, overrides graph.kv_dir")
)

//	@title			cyclone API
//	@version		1.0
//	@description	target distance cycling route engine

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *mapFile != "" {
		cfg.Graph.PbfFile = *mapFile
	}
	if *kvDir != "" {
		cfg.Graph.KVDir = *kvDir
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graph, err := loadGraph(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to load road graph", zap.Error(err))
	}

	opts := []service.Option{
		service.WithSeed(cfg.Engine.Seed),
		service.WithTimeout(cfg.EngineTimeout()),
		service.WithGraph(graph,
			routingalgorithm.WithDFSConfig(cfg.DFSConfig()),
			routingalgorithm.WithRandomWalkConfig(cfg.RandomWalkConfig()),
		),
	}

	if cfg.Elevation.CacheDir != "" {
		elevation, err := kv.OpenElevationCache(cfg.Elevation.CacheDir)
		if err != nil {
			lg.Fatal("failed to open elevation cache", zap.Error(err))
		}
		defer elevation.Close()
		opts = append(opts, service.WithElevationStore(elevation))
	}
	if cfg.GraphHopper.Enabled() {
		opts = append(opts, service.WithRoadSnapper(graphhopper.NewClient(cfg.GraphHopperClientConfig(), lg)))
	} else {
		lg.Info("graphhopper api key not set, routes are not road snapped")
	}
	if seeder := aiseed.NewSeeder(cfg.SeederConfig(), lg); seeder.Enabled() {
		opts = append(opts, service.WithSeeder(seeder))
	} else {
		lg.Info("openai api key not set, ai seeding disabled")
	}

	synth := synthesizer.NewLoopSynthesizer(cfg.SynthesizerConfig(), sampler.NewCandidateSampler(cfg.SamplerConfig()))
	routeSvc := service.NewRouteService(synth, assembler.NewRouteAssembler(cfg.Engine.CyclingSpeedKmh), lg, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	rest.RouteRouter(r, routeSvc, m)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("server shutdown failed", zap.Error(err))
		}
	}()

	health := routeSvc.Health()
	lg.Info("server started",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.Bool("graph", health.GraphLoaded),
		zap.Int("graph_nodes", health.GraphNodes),
		zap.Bool("road_snapping", health.RoadSnapping),
		zap.Bool("ai_seeding", health.AISeeding),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("server failed", zap.Error(err))
	}
	lg.Info("server stopped")
}

// loadGraph prefers the graph store; a pbf file is parsed when the store is empty and the result is stored.
// No store and no pbf file means geometric only.
func loadGraph(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*datastructure.Graph, error) {
	if cfg.Graph.KVDir == "" && cfg.Graph.PbfFile == "" {
		lg.Info("no road graph configured, serving geometric routes only")
		return nil, nil
	}

	var store *kv.GraphStore
	if cfg.Graph.KVDir != "" {
		var err error
		store, err = kv.OpenGraphStore(cfg.Graph.KVDir, lg)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		stored, err := store.HasGraph()
		if err != nil {
			return nil, err
		}
		if stored {
			return loadStoredGraph(ctx, store, cfg.Graph, lg)
		}
	}

	if cfg.Graph.PbfFile == "" {
		lg.Warn("graph store is empty and no pbf file configured", zap.String("kv_dir", cfg.Graph.KVDir))
		return nil, nil
	}

	parser := osmparser.NewOSMParser(osmparser.Options{AvoidHighways: cfg.Graph.AvoidHighways}, lg)
	g, err := parser.ParseFile(ctx, cfg.Graph.PbfFile)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.SaveGraph(ctx, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func loadStoredGraph(ctx context.Context, store *kv.GraphStore, gc config.GraphConfig, lg *zap.Logger) (*datastructure.Graph, error) {
	if gc.HasRegion() {
		center := datastructure.NewCoordinate(gc.RegionLat, gc.RegionLon)
		lg.Info("loading graph region", zap.Float64("lat", center.Lat), zap.Float64("lon", center.Lon),
			zap.Float64("radius_km", gc.RegionRadiusKm))
		return store.LoadRegion(ctx, center, gc.RegionRadiusKm)
	}
	return store.LoadGraph(ctx)
}
