package directory

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsoffice/servicedesk/internal/docstore/memory"
)

func TestCreateDefaults(t *testing.T) {
	p := NewProfiles(memory.New(), zerolog.Nop())
	ctx := context.Background()

	profile, err := p.Create(ctx, Profile{Email: "jdoe@gso.gov"})
	require.NoError(t, err)
	assert.Equal(t, RoleBaseline, profile.Role)
	assert.Equal(t, "jdoe", profile.FullName)
	assert.NotEmpty(t, profile.ID)
	assert.False(t, profile.CreatedAt.IsZero())
}

func TestLookupByAuthUIDAndEmail(t *testing.T) {
	p := NewProfiles(memory.New(), zerolog.Nop())
	ctx := context.Background()

	created, err := p.Create(ctx, Profile{Email: "a@gso.gov", AuthUID: "uid-1"})
	require.NoError(t, err)

	byUID, err := p.GetByAuthUID(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, byUID)
	assert.Equal(t, created.ID, byUID.ID)

	byEmail, err := p.GetByEmail(ctx, "a@gso.gov")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	none, err := p.GetByAuthUID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLinkAuth(t *testing.T) {
	p := NewProfiles(memory.New(), zerolog.Nop())
	ctx := context.Background()

	created, err := p.Create(ctx, Profile{Email: "b@gso.gov"})
	require.NoError(t, err)

	require.NoError(t, p.LinkAuth(ctx, created.ID, "uid-9"))

	got, err := p.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "uid-9", got.AuthUID)

	err = p.LinkAuth(ctx, "missing", "uid-9")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestEnsureProfile(t *testing.T) {
	p := NewProfiles(memory.New(), zerolog.Nop())
	ctx := context.Background()

	ident := Identity{UID: "uid-1", Email: "new@gso.gov", DisplayName: "New Person"}

	// First contact creates.
	profile, err := p.EnsureProfile(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", profile.AuthUID)
	assert.Equal(t, "New Person", profile.FullName)

	// Second contact finds the same profile.
	again, err := p.EnsureProfile(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestEnsureProfileLinksByEmail(t *testing.T) {
	p := NewProfiles(memory.New(), zerolog.Nop())
	ctx := context.Background()

	created, err := p.Create(ctx, Profile{Email: "old@gso.gov"})
	require.NoError(t, err)

	profile, err := p.EnsureProfile(ctx, Identity{UID: "uid-7", Email: "old@gso.gov"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, profile.ID)
	assert.Equal(t, "uid-7", profile.AuthUID)
}

func TestIdentityListPaging(t *testing.T) {
	store := memory.New()
	ids := NewIdentityStore(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, ids.Create(ctx, Identity{
			UID:   fmt.Sprintf("uid-%02d", i),
			Email: fmt.Sprintf("u%02d@gso.gov", i),
		}))
	}

	var all []Identity
	token := ""
	for {
		page, next, err := ids.List(ctx, 2, token)
		require.NoError(t, err)
		all = append(all, page...)
		if next == "" {
			break
		}
		token = next
	}

	require.Len(t, all, 5)
	assert.Equal(t, "uid-00", all[0].UID)
	assert.Equal(t, "uid-04", all[4].UID)
}

func TestSignInAnonymously(t *testing.T) {
	ids := NewIdentityStore(memory.New())

	ident, err := ids.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.True(t, ident.Anonymous)
	assert.NotEmpty(t, ident.UID)

	got, err := ids.Get(context.Background(), ident.UID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Anonymous)
}
