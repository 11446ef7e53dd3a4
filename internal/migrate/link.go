package migrate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/directory"
)

// LinkAuthProfile links one authentication identity to one profile. The
// profile must already exist; callers treat directory.ErrProfileNotFound as
// a fatal post-argument error.
func LinkAuthProfile(ctx context.Context, profiles *directory.Profiles, authUID, profileID string, log zerolog.Logger) error {
	profile, err := profiles.Get(ctx, profileID)
	if err != nil {
		return fmt.Errorf("loading profile %s: %w", profileID, err)
	}
	if profile == nil {
		return fmt.Errorf("profile %s: %w", profileID, directory.ErrProfileNotFound)
	}

	if err := profiles.LinkAuth(ctx, profileID, authUID); err != nil {
		return fmt.Errorf("linking identity: %w", err)
	}

	log.Info().Str("profile", profileID).Str("uid", authUID).Msg("identity linked")
	return nil
}
