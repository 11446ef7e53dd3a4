package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/gsoffice/servicedesk/internal/docstore"
)

const CollectionIdentities = "auth_identities"

// MaxIdentityPageSize caps one page of the identity listing.
const MaxIdentityPageSize = 1000

// Identity is what the authentication provider exposes about one account:
// an opaque uid plus optional email and display name.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Anonymous   bool   `json:"anonymous,omitempty"`
}

// IdentityProvider is the authentication boundary. List pages through every
// identity; an empty next token means the listing is done.
type IdentityProvider interface {
	Get(ctx context.Context, uid string) (*Identity, error)
	SignInAnonymously(ctx context.Context) (*Identity, error)
	List(ctx context.Context, pageSize int, pageToken string) ([]Identity, string, error)
}

// IdentityStore implements IdentityProvider over the document store.
type IdentityStore struct {
	store docstore.Store
}

func NewIdentityStore(store docstore.Store) *IdentityStore {
	return &IdentityStore{store: store}
}

func (s *IdentityStore) Get(ctx context.Context, uid string) (*Identity, error) {
	doc, err := s.store.Get(ctx, CollectionIdentities, uid)
	if err != nil || doc == nil {
		return nil, err
	}
	ident := identityFromDocument(*doc)
	return &ident, nil
}

// Create registers an identity under a caller-chosen uid.
func (s *IdentityStore) Create(ctx context.Context, ident Identity) error {
	return s.store.Set(ctx, CollectionIdentities, ident.UID, map[string]any{
		"email":       ident.Email,
		"displayName": ident.DisplayName,
		"anonymous":   ident.Anonymous,
	}, false)
}

// SignInAnonymously mints a fresh anonymous identity.
func (s *IdentityStore) SignInAnonymously(ctx context.Context) (*Identity, error) {
	ident := Identity{UID: uuid.NewString(), Anonymous: true}
	if err := s.Create(ctx, ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// List pages identities in uid order. pageToken is the last uid of the
// previous page; the returned token is empty on the final page.
func (s *IdentityStore) List(ctx context.Context, pageSize int, pageToken string) ([]Identity, string, error) {
	if pageSize <= 0 || pageSize > MaxIdentityPageSize {
		pageSize = MaxIdentityPageSize
	}

	docs, err := s.store.Query(ctx, CollectionIdentities, docstore.Query{
		AfterID: pageToken,
		Limit:   pageSize,
	})
	if err != nil {
		return nil, "", err
	}

	identities := make([]Identity, len(docs))
	for i, doc := range docs {
		identities[i] = identityFromDocument(doc)
	}

	next := ""
	if len(identities) == pageSize {
		next = identities[len(identities)-1].UID
	}
	return identities, next, nil
}

func identityFromDocument(doc docstore.Document) Identity {
	r := docstore.Record{ID: doc.ID, Fields: doc.Fields}
	return Identity{
		UID:         doc.ID,
		Email:       r.String("email"),
		DisplayName: r.String("displayName"),
		Anonymous:   r.Bool("anonymous"),
	}
}
