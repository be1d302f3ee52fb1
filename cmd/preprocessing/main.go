package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/owenkobasz/cyclone/pkg/config"
	"github.com/owenkobasz/cyclone/pkg/kv"
	"github.com/owenkobasz/cyclone/pkg/logger"
	"github.com/owenkobasz/cyclone/pkg/osmparser"

	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "config file, defaults to ./config.yaml or ./configs/config.yaml")
	mapFile    = flag.String("f", "", "openstreetmap pbf file to build the cycling graph from, overrides graph.pbf_file")
	kvDir      = flag.String("kv", "", "graph store directory, overrides graph.kv_dir")
	keepAll    = flag.Bool("keepall", false, "keep every strongly connected component instead of the largest")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		// ./bin/cyclone-preprocessing -cpuprofile=cyclonecpu.prof -memprofile=cyclonemem.mprof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
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

	if cfg.Graph.PbfFile == "" || cfg.Graph.KVDir == "" {
		lg.Fatal("both a pbf file (-f) and a graph store directory (-kv) are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	lg.Info("reading osm file", zap.String("file", cfg.Graph.PbfFile))
	parser := osmparser.NewOSMParser(osmparser.Options{
		AvoidHighways: cfg.Graph.AvoidHighways,
		KeepAllSCC:    *keepAll,
		ShowProgress:  true,
	}, lg)
	g, err := parser.ParseFile(ctx, cfg.Graph.PbfFile)
	if err != nil {
		lg.Fatal("failed to parse osm file", zap.Error(err))
	}
	recordMemProfile(memprofile, "parsing_osm_data")

	store, err := kv.OpenGraphStore(cfg.Graph.KVDir, lg)
	if err != nil {
		lg.Fatal("failed to open graph store", zap.Error(err))
	}
	defer store.Close()

	lg.Info("saving cycling graph", zap.String("kv_dir", cfg.Graph.KVDir))
	if err := store.SaveGraph(ctx, g); err != nil {
		lg.Fatal("failed to save graph", zap.Error(err))
	}
	recordMemProfile(memprofile, "saving_graph")

	lg.Info("cycling graph ready",
		zap.Int("nodes", g.GetNumNodes()),
		zap.Int("edges", g.GetNumEdges()),
		zap.Duration("took", time.Since(start)),
	)
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
