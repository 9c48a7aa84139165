package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vivetti/salesdesk-backend/pkg/config"
	pkgredis "github.com/vivetti/salesdesk-backend/pkg/redis"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

// Store is the redis surface sessions are kept in.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to reject revoked tokens.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// entry is stored under the access id. Only a digest of the refresh token is kept.
type entry struct {
	UserID     uuid.UUID `json:"user_id"`
	TokenHash  string    `json:"token_hash"`
	IssuedUnix int64     `json:"issued_at"`
}

// Rotation is the session that replaced a refreshed one.
type Rotation struct {
	AccessID     string
	RefreshToken string
	UserID       uuid.UUID
}

// Manager binds refresh tokens to access ids and rotates them one-shot.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh lifetime to outlive the access token it refreshes.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case ttl <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl %s must exceed access token ttl %s", ttl, accessTTL)
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// Generate issues a refresh token for userID under accessID.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errMissingAccessID
	}
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	return m.issue(ctx, accessID, userID)
}

// Rotate spends the refresh token bound to oldAccessID. The old session is gone
// once a new one is stored, so a replayed token fails.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Rotation, error) {
	if strings.TrimSpace(oldAccessID) == "" || provided == "" {
		return Rotation{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	current, err := m.load(ctx, key)
	if err != nil {
		return Rotation{}, err
	}
	if subtle.ConstantTimeCompare([]byte(current.TokenHash), []byte(digest(provided))) != 1 {
		return Rotation{}, ErrInvalidRefreshToken
	}

	next := Rotation{AccessID: NewAccessID(), UserID: current.UserID}
	if next.RefreshToken, err = m.issue(ctx, next.AccessID, current.UserID); err != nil {
		return Rotation{}, err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return Rotation{}, err
	}
	return next, nil
}

// Revoke drops the session behind accessID. Unknown ids are not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errMissingAccessID
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case pkgredis.IsMiss(err):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) issue(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(entry{UserID: userID, TokenHash: digest(token), IssuedUnix: m.now().Unix()})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) load(ctx context.Context, key string) (entry, error) {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsMiss(err) {
			return entry{}, ErrInvalidRefreshToken
		}
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.UserID == uuid.Nil {
		return entry{}, ErrInvalidRefreshToken
	}
	return e, nil
}

// NewAccessID returns the identifier used as the token jti and the session key.
func NewAccessID() string {
	return uuid.NewString()
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
