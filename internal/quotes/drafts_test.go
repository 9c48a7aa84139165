package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
)

type memoryBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryBackend) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryBackend) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryBackend) DraftKey(draftID string) string {
	return "sd:quote_draft:" + draftID
}

func TestDraftStoreRoundTrip(t *testing.T) {
	backend := newMemoryBackend()
	store, err := NewDraftStore(backend, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	docID := uuid.New()
	draft := &Draft{
		ID:         uuid.New(),
		Kind:       enums.DraftKindEdit,
		DocumentID: &docID,
		OwnerID:    uuid.New(),
		AgentID:    "AG01",
		Lines:      scenarioLines(t),
		CreatedAt:  fixedNow,
	}
	require.NoError(t, store.Save(ctx, draft))
	assert.Equal(t, time.Hour, backend.ttls["sd:quote_draft:"+draft.ID.String()])

	loaded, err := store.Load(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Kind, loaded.Kind)
	require.NotNil(t, loaded.DocumentID)
	assert.Equal(t, docID, *loaded.DocumentID)
	require.Len(t, loaded.Lines, 2)
	assert.True(t, loaded.Lines[0].NetUnitPrice.Equal(dec("90")))
	assert.True(t, loaded.Lines[1].FreeOfCharge)
	assert.Equal(t, "consegna al piano", loaded.Lines[0].Note)

	require.NoError(t, store.Delete(ctx, draft.ID))
	_, err = store.Load(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftStoreSurfacesBackendErrors(t *testing.T) {
	backend := newMemoryBackend()
	backend.getErr = errors.New("connection refused")
	store, err := NewDraftStore(backend, time.Hour)
	require.NoError(t, err)

	_, err = store.Load(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftStoreEncodesEmptyLines(t *testing.T) {
	backend := newMemoryBackend()
	store, _ := NewDraftStore(backend, time.Minute)
	draft := &Draft{ID: uuid.New(), Kind: enums.DraftKindNew}

	require.NoError(t, store.Save(context.Background(), draft))
	assert.Contains(t, backend.values[backend.DraftKey(draft.ID.String())], `"lines":[]`)
}

func TestNewDraftStoreValidates(t *testing.T) {
	_, err := NewDraftStore(nil, time.Minute)
	assert.Error(t, err)
	_, err = NewDraftStore(newMemoryBackend(), 0)
	assert.Error(t, err)
}

func TestDraftStoreRejectsUnknownKind(t *testing.T) {
	backend := newMemoryBackend()
	store, err := NewDraftStore(backend, time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	backend.values[backend.DraftKey(id.String())] = `{"id":"` + id.String() + `","kind":"archived","lines":[]}`

	_, err = store.Load(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDraftNotFound)
}
