// Package directory holds the office's people data: personnel profiles in
// the users collection and the boundary to the authentication provider's
// identity records.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

const CollectionUsers = "users"

// RoleBaseline is the role given to profiles created without an explicit one.
const RoleBaseline = "personnel"

var ErrProfileNotFound = errors.New("profile not found")

// Profile is one personnel record. AuthUID links it to the authentication
// provider's identity; at most one profile per non-empty AuthUID, enforced
// by lookup-before-create only.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	AuthUID      string    `json:"authUid,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Profiles struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewProfiles(store docstore.Store, log zerolog.Logger) *Profiles {
	return &Profiles{store: store, log: log.With().Str("component", "directory").Logger()}
}

func (p *Profiles) Get(ctx context.Context, id string) (*Profile, error) {
	doc, err := p.store.Get(ctx, CollectionUsers, id)
	if err != nil || doc == nil {
		return nil, err
	}
	profile := profileFromDocument(*doc)
	return &profile, nil
}

func (p *Profiles) GetByAuthUID(ctx context.Context, authUID string) (*Profile, error) {
	return p.getByField(ctx, "authUid", authUID)
}

func (p *Profiles) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return p.getByField(ctx, "email", email)
}

func (p *Profiles) getByField(ctx context.Context, field, value string) (*Profile, error) {
	if value == "" {
		return nil, nil
	}
	docs, err := p.store.Query(ctx, CollectionUsers, docstore.Query{
		Filters: []docstore.Filter{{Field: field, Value: value}},
		Limit:   1,
	})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	profile := profileFromDocument(docs[0])
	return &profile, nil
}

// Create stores a new profile and returns it with the assigned id. An empty
// role defaults to the baseline role; an empty full name falls back to the
// local part of the email.
func (p *Profiles) Create(ctx context.Context, profile Profile) (*Profile, error) {
	if profile.Role == "" {
		profile.Role = RoleBaseline
	}
	if profile.FullName == "" {
		profile.FullName = EmailLocalPart(profile.Email)
	}
	profile.CreatedAt = time.Now().UTC()

	fields := map[string]any{
		"email":     profile.Email,
		"fullName":  profile.FullName,
		"role":      profile.Role,
		"createdAt": profile.CreatedAt,
	}
	if profile.AuthUID != "" {
		fields["authUid"] = profile.AuthUID
	}
	if profile.PasswordHash != "" {
		fields["passwordHash"] = profile.PasswordHash
	}

	id, err := p.store.Create(ctx, CollectionUsers, fields)
	if err != nil {
		return nil, err
	}
	profile.ID = id
	return &profile, nil
}

// Update merge-writes the given fields onto an existing profile.
func (p *Profiles) Update(ctx context.Context, id string, fields map[string]any) error {
	err := p.store.Update(ctx, CollectionUsers, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrProfileNotFound
	}
	return err
}

// LinkAuth merge-writes the identity link onto the profile, which must exist.
func (p *Profiles) LinkAuth(ctx context.Context, id, authUID string) error {
	return p.Update(ctx, id, map[string]any{"authUid": authUID})
}

// EnsureProfile returns the profile linked to the identity, creating a
// minimal one on first authenticated contact. Lookup goes by auth uid, then
// by email (linking the identity when matched), then creates.
func (p *Profiles) EnsureProfile(ctx context.Context, ident Identity) (*Profile, error) {
	profile, err := p.GetByAuthUID(ctx, ident.UID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	profile, err = p.GetByEmail(ctx, ident.Email)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		if profile.AuthUID != ident.UID {
			if err := p.LinkAuth(ctx, profile.ID, ident.UID); err != nil {
				return nil, err
			}
			profile.AuthUID = ident.UID
		}
		return profile, nil
	}

	p.log.Info().Str("uid", ident.UID).Msg("creating profile on first contact")
	return p.Create(ctx, Profile{
		Email:    ident.Email,
		FullName: ident.DisplayName,
		AuthUID:  ident.UID,
	})
}

// EmailLocalPart returns the part before "@", or the whole string when there
// is no "@".
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func profileFromDocument(doc docstore.Document) Profile {
	r := docstore.Record{ID: doc.ID, Fields: docstore.Normalize(doc.Fields)}
	p := Profile{
		ID:           r.ID,
		Email:        r.String("email"),
		FullName:     r.String("fullName"),
		Role:         r.String("role"),
		AuthUID:      r.String("authUid"),
		PasswordHash: r.String("passwordHash"),
	}
	if t, ok := r.Time("createdAt"); ok {
		p.CreatedAt = t
	}
	return p
}
