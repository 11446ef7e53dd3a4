// Moves legacy flat messages into per-conversation sub-streams and upserts
// the conversation summaries. The original message id becomes the sub-stream
// document id, so re-running merges instead of duplicating.
//
// Usage: migrate-chats [--dry-run]
//
// Exit codes: 0 success, 2 execution failure.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/gsoffice/servicedesk/internal/config"
	"github.com/gsoffice/servicedesk/internal/database"
	docpg "github.com/gsoffice/servicedesk/internal/docstore/postgres"
	"github.com/gsoffice/servicedesk/internal/migrate"
	"github.com/gsoffice/servicedesk/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log intended writes without performing them")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("database connect failed")
		os.Exit(2)
	}
	defer pool.Close()

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Error().Err(err).Msg("redis connect failed")
		os.Exit(2)
	}
	defer rdb.Close()

	store := docpg.NewStore(pool, rdb, log)

	migration := &migrate.ChatMigration{Store: store, DryRun: *dryRun, Log: log}
	counts, err := migration.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(2)
	}

	log.Info().
		Bool("dry_run", *dryRun).
		Int("migrated", counts.Migrated).
		Int("conversations", counts.Conversations).
		Int("missing", counts.Missing).
		Int("failed", counts.Failed).
		Msg("migration done")
}
