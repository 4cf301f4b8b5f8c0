package service

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- Error Definitions ---
var (
	ErrInvalidToken    = errors.New("invalid session token")
	ErrTokenExpired    = errors.New("session token has expired")
	ErrTokenGeneration = errors.New("failed to generate session token")
)

// SignInHook runs after an identity was established, typically to start a sync.
type SignInHook func(ctx context.Context, user *domain.Identity)

// SessionService tracks which identity the local data is synced for.
// Without an identity the app runs in guest mode.
type SessionService interface {
	IssueToken(user domain.Identity) (string, error)
	ParseToken(token string) (*domain.Identity, error)
	SignIn(ctx context.Context, token string) (*domain.Identity, error)
	SignOut(ctx context.Context)
	Current() *domain.Identity
}

type sessionService struct {
	repo          *local.Repository
	jwtSecret     string
	jwtExpiration time.Duration
	onSignIn      SignInHook

	mu      sync.RWMutex
	current *domain.Identity
}

// NewSessionService creates a session service signing tokens with jwtSecret.
// onSignIn may be nil.
func NewSessionService(repo *local.Repository, jwtSecret string, jwtExpiration time.Duration, onSignIn SignInHook) SessionService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	return &sessionService{
		repo:          repo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		onSignIn:      onSignIn,
	}
}

// jwtClaims is the session token payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for user. Used by the CLI and for development;
// production tokens come from the identity provider sharing the secret.
func (s *sessionService) IssueToken(user domain.Identity) (string, error) {
	if strings.TrimSpace(user.UserID) == "" {
		return "", fmt.Errorf("%w: user id is required", ErrTokenGeneration)
	}
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.UserID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "myhealth",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		log.Printf("ERROR: Failed to sign session token for user %s: %v", user.UserID, err)
		return "", ErrTokenGeneration
	}
	return signed, nil
}

// ParseToken validates token and returns the identity it carries.
func (s *sessionService) ParseToken(token string) (*domain.Identity, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	return &domain.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// SignIn establishes the identity carried by token, leaves guest mode and hands
// guest measurements over to the user before the sign-in hook runs.
func (s *sessionService) SignIn(ctx context.Context, token string) (*domain.Identity, error) {
	user, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = user
	s.mu.Unlock()

	s.repo.SetGuestMode(ctx, false)
	if adopted := s.repo.AdoptGuestMeasurements(ctx, user.UserID); adopted > 0 {
		log.Printf("INFO: Adopted %d guest measurements for user %s", adopted, user.UserID)
	}
	log.Printf("INFO: User %s signed in", user.UserID)

	if s.onSignIn != nil {
		s.onSignIn(ctx, user)
	}
	return user, nil
}

// SignOut drops the identity and switches to guest mode. Local data is kept.
func (s *sessionService) SignOut(ctx context.Context) {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	s.repo.SetGuestMode(ctx, true)
	if prev != nil {
		log.Printf("INFO: User %s signed out", prev.UserID)
	}
}

// Current returns a copy of the signed-in identity, or nil in guest mode.
func (s *sessionService) Current() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	user := *s.current
	return &user
}
