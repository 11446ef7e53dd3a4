// Pages through every authentication identity and makes sure each has a
// personnel profile: repairs missing or stale identity links and creates
// minimal profiles for identities with no match.
//
// Exit codes: 0 success, 2 execution failure.
package main

import (
	"context"
	"os"

	"github.com/gsoffice/servicedesk/internal/config"
	"github.com/gsoffice/servicedesk/internal/database"
	"github.com/gsoffice/servicedesk/internal/directory"
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
	profiles := directory.NewProfiles(store, log)
	identities := directory.NewIdentityStore(store)

	counts, err := migrate.ReconcileIdentities(ctx, identities, profiles, log)
	if err != nil {
		log.Error().Err(err).Msg("reconcile failed")
		os.Exit(2)
	}

	log.Info().
		Int("linked", counts.Linked).
		Int("created", counts.Created).
		Int("unchanged", counts.Unchanged).
		Int("skipped", counts.Skipped).
		Int("failed", counts.Failed).
		Msg("reconcile done")
}
