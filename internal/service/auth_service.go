package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/gsoffice/servicedesk/internal/directory"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthService signs personnel in against their profile and links each login
// to an authentication identity. Anonymous sign-in mints an identity with no
// profile; a profile is created lazily on first authenticated contact.
type AuthService struct {
	profiles   *directory.Profiles
	identities *directory.IdentityStore
	jwtSecret  []byte
}

func NewAuthService(profiles *directory.Profiles, identities *directory.IdentityStore, jwtSecret string) *AuthService {
	return &AuthService{
		profiles:   profiles,
		identities: identities,
		jwtSecret:  []byte(jwtSecret),
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Profile     *directory.Profile `json:"profile,omitempty"`
	Identity    directory.Identity `json:"identity"`
	AccessToken string             `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := s.profiles.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	ident := directory.Identity{
		UID:         newUID(),
		Email:       input.Email,
		DisplayName: input.FullName,
	}
	if err := s.identities.Create(ctx, ident); err != nil {
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	profile, err := s.profiles.Create(ctx, directory.Profile{
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         input.Role,
		AuthUID:      ident.UID,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	token, err := s.generateToken(ident.UID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Profile: profile, Identity: ident, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	profile, err := s.profiles.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, profile.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	ident := directory.Identity{UID: profile.AuthUID, Email: profile.Email, DisplayName: profile.FullName}
	if ident.UID == "" {
		// Pre-migration profile with no linked identity; mint one now.
		ident.UID = newUID()
		if err := s.identities.Create(ctx, ident); err != nil {
			return nil, fmt.Errorf("creating identity: %w", err)
		}
		if err := s.profiles.LinkAuth(ctx, profile.ID, ident.UID); err != nil {
			return nil, fmt.Errorf("linking identity: %w", err)
		}
		profile.AuthUID = ident.UID
	}

	token, err := s.generateToken(ident.UID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Profile: profile, Identity: ident, AccessToken: token}, nil
}

// SignInAnonymously issues a token for a fresh anonymous identity.
func (s *AuthService) SignInAnonymously(ctx context.Context) (*AuthResponse, error) {
	ident, err := s.identities.SignInAnonymously(ctx)
	if err != nil {
		return nil, fmt.Errorf("anonymous sign-in: %w", err)
	}

	token, err := s.generateToken(ident.UID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Identity: *ident, AccessToken: token}, nil
}

// Current resolves the bearer token to the signed-in identity and its
// profile, creating the profile on first authenticated contact for
// non-anonymous identities.
func (s *AuthService) Current(ctx context.Context, tokenStr string) (*AuthResponse, error) {
	uid, err := s.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	ident, err := s.identities.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, ErrInvalidToken
	}

	resp := &AuthResponse{Identity: *ident}
	if !ident.Anonymous {
		profile, err := s.profiles.EnsureProfile(ctx, *ident)
		if err != nil {
			return nil, err
		}
		resp.Profile = profile
	}
	return resp, nil
}

// VerifyToken returns the identity uid carried by a valid token.
func (s *AuthService) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *AuthService) generateToken(uid string) (string, error) {
	claims := jwt.MapClaims{
		"sub": uid,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func newUID() string {
	return uuid.NewString()
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
