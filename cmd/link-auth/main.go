// Links one authentication identity to one personnel profile.
//
// Usage: link-auth <auth-uid> <profile-id>
//
// Exit codes: 0 success, 1 missing argument, 2 execution failure,
// 10 profile not found.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gsoffice/servicedesk/internal/config"
	"github.com/gsoffice/servicedesk/internal/database"
	"github.com/gsoffice/servicedesk/internal/directory"
	docpg "github.com/gsoffice/servicedesk/internal/docstore/postgres"
	"github.com/gsoffice/servicedesk/internal/migrate"
	"github.com/gsoffice/servicedesk/pkg/logger"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: link-auth <auth-uid> <profile-id>")
		os.Exit(1)
	}
	authUID, profileID := os.Args[1], os.Args[2]

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

	if err := migrate.LinkAuthProfile(ctx, profiles, authUID, profileID, log); err != nil {
		log.Error().Err(err).Msg("link failed")
		if errors.Is(err, directory.ErrProfileNotFound) {
			os.Exit(10)
		}
		os.Exit(2)
	}
}
