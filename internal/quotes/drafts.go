package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgredis "github.com/vivetti/salesdesk-backend/pkg/redis"
)

// ErrDraftNotFound is returned when a draft expired, was discarded, or never existed.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is the session object holding a cart between requests.
// Edit drafts carry the id of the persisted document they will overwrite.
type Draft struct {
	ID         uuid.UUID       `json:"id"`
	Kind       enums.DraftKind `json:"kind"`
	DocumentID *uuid.UUID      `json:"document_id,omitempty"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	AgentID    string          `json:"agent_id,omitempty"`
	Lines      []Line          `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Cart returns a cart over a copy of the draft lines.
func (d *Draft) Cart() *Cart {
	return NewCart(d.Lines)
}

type draftBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DraftKey(draftID string) string
}

// DraftStore keeps drafts in redis as JSON with a sliding TTL.
type DraftStore struct {
	backend draftBackend
	ttl     time.Duration
}

// NewDraftStore builds a draft store.
func NewDraftStore(backend draftBackend, ttl time.Duration) (*DraftStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("draft backend required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("draft ttl must be positive")
	}
	return &DraftStore{backend: backend, ttl: ttl}, nil
}

// Save writes the draft and refreshes its TTL.
func (s *DraftStore) Save(ctx context.Context, draft *Draft) error {
	if draft.Lines == nil {
		draft.Lines = []Line{}
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.backend.Set(ctx, s.backend.DraftKey(draft.ID.String()), string(payload), s.ttl)
}

// Load reads a draft by id.
func (s *DraftStore) Load(ctx context.Context, id uuid.UUID) (*Draft, error) {
	raw, err := s.backend.Get(ctx, s.backend.DraftKey(id.String()))
	if err != nil {
		if pkgredis.IsMiss(err) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if draft.Kind, err = enums.ParseDraftKind(string(draft.Kind)); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	if draft.Kind == enums.DraftKindEdit && draft.DocumentID == nil {
		return nil, fmt.Errorf("decode draft %s: edit draft without document", id)
	}
	return &draft, nil
}

// Delete drops the draft.
func (s *DraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.backend.Del(ctx, s.backend.DraftKey(id.String()))
}
