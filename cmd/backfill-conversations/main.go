// Backfills the conversationId field onto legacy flat messages. Safe to
// re-run; already-annotated messages are untouched.
//
// Exit codes: 0 success, 2 execution failure.
package main

import (
	"context"
	"os"

	"github.com/gsoffice/servicedesk/internal/config"
	"github.com/gsoffice/servicedesk/internal/database"
	docpg "github.com/gsoffice/servicedesk/internal/docstore/postgres"
	"github.com/gsoffice/servicedesk/internal/migrate"
	"github.com/gsoffice/servicedesk/pkg/logger"
)

func main() {
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

	counts, err := migrate.AnnotateConversations(ctx, store, log)
	if err != nil {
		log.Error().Err(err).Msg("backfill failed")
		os.Exit(2)
	}

	log.Info().
		Int("annotated", counts.Annotated).
		Int("skipped", counts.Skipped).
		Int("missing", counts.Missing).
		Int("failed", counts.Failed).
		Msg("backfill done")
}
