package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"bookrag/internal/config"
	"bookrag/internal/helper"
	"bookrag/internal/rag"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	dataDir := flag.String("data", "", "Corpus directory (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk only, do not embed or write the index")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *dataDir != "" {
		cfg.RAG.DataDir = *dataDir
	}

	if err := helper.CreateFolder(cfg.Store.Path); err != nil {
		log.Fatal().Err(err).Msg("Error creating store folder")
	}

	pipeline, err := rag.Build(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building pipeline")
	}
	defer pipeline.Close()

	opts := rag.IngestOptions{
		DryRun: *dryRun,
		Progress: func(total int) func() {
			bar := progressbar.Default(int64(total), "embedding chunks")
			return func() { _ = bar.Add(1) }
		},
	}

	report, err := pipeline.Ingest(context.Background(), cfg.RAG.DataDir, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	log.Info().
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("skipped", len(report.Skipped)).
		Msg("Ingestion completed")
	if len(report.Skipped) > 0 {
		helper.PrettyPrint(report.Skipped)
	}
}
