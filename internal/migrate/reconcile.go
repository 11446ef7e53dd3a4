package migrate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/directory"
)

// ReconcileCounts reports one reconcile run.
type ReconcileCounts struct {
	Linked    int `json:"linked"`
	Created   int `json:"created"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ReconcileIdentities pages through every authentication identity and makes
// sure each has a profile: match by identity link first, then by email
// (repairing a missing or stale link), otherwise create a minimal profile
// with the baseline role and the email's local part as the name.
func ReconcileIdentities(ctx context.Context, provider directory.IdentityProvider, profiles *directory.Profiles, log zerolog.Logger) (ReconcileCounts, error) {
	var counts ReconcileCounts

	pageToken := ""
	for {
		identities, next, err := provider.List(ctx, directory.MaxIdentityPageSize, pageToken)
		if err != nil {
			return counts, err
		}

		for _, ident := range identities {
			if err := reconcileOne(ctx, profiles, ident, &counts, log); err != nil {
				counts.Failed++
				log.Error().Err(err).Str("uid", ident.UID).Msg("reconcile failed")
			}
		}

		if next == "" {
			break
		}
		pageToken = next
	}

	log.Info().
		Int("linked", counts.Linked).
		Int("created", counts.Created).
		Int("unchanged", counts.Unchanged).
		Int("skipped", counts.Skipped).
		Int("failed", counts.Failed).
		Msg("reconcile run complete")
	return counts, nil
}

func reconcileOne(ctx context.Context, profiles *directory.Profiles, ident directory.Identity, counts *ReconcileCounts, log zerolog.Logger) error {
	profile, err := profiles.GetByAuthUID(ctx, ident.UID)
	if err != nil {
		return err
	}
	if profile != nil {
		counts.Unchanged++
		return nil
	}

	profile, err = profiles.GetByEmail(ctx, ident.Email)
	if err != nil {
		return err
	}
	if profile != nil {
		if profile.AuthUID == ident.UID {
			counts.Unchanged++
			return nil
		}
		if err := profiles.LinkAuth(ctx, profile.ID, ident.UID); err != nil {
			return err
		}
		counts.Linked++
		return nil
	}

	if ident.Email == "" {
		// Nothing to match or name a profile by; anonymous accounts stay
		// profile-less.
		counts.Skipped++
		return nil
	}

	_, err = profiles.Create(ctx, directory.Profile{
		Email:    ident.Email,
		FullName: directory.EmailLocalPart(ident.Email),
		Role:     directory.RoleBaseline,
		AuthUID:  ident.UID,
	})
	if err != nil {
		return err
	}
	counts.Created++
	log.Info().Str("uid", ident.UID).Str("email", ident.Email).Msg("profile created")
	return nil
}
