package links

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	links map[string]Link
	err   error
}

func newMemStore() *memStore {
	return &memStore{links: make(map[string]Link)}
}

func (m *memStore) PutLink(l Link) error {
	if m.err != nil {
		return m.err
	}
	m.links[l.ID] = l
	return nil
}

func (m *memStore) GetLink(id string) (*Link, error) {
	if m.err != nil {
		return nil, m.err
	}
	l, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memStore) DeleteLink(id string) error {
	delete(m.links, id)
	return nil
}

func (m *memStore) AllLinks() ([]Link, error) {
	var all []Link
	for _, l := range m.links {
		all = append(all, l)
	}
	return all, nil
}

func TestIssueAndValidate(t *testing.T) {
	store := newMemStore()
	h := NewHandler(store, time.Hour)

	l, err := h.Issue("user@test.com")
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "user@test.com", l.Email)

	email, err := h.Validate(l.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@test.com", email)

	// A link is single-use.
	_, err = h.Validate(l.ID)
	assert.Error(t, err)
}

func TestValidateUnknownToken(t *testing.T) {
	h := NewHandler(newMemStore(), time.Hour)

	_, err := h.Validate("does-not-exist")
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	store := newMemStore()
	h := NewHandler(store, time.Hour)

	l, err := h.Issue("user@test.com")
	require.NoError(t, err)

	// Jump past expiry.
	h.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = h.Validate(l.ID)
	assert.Error(t, err)
}

func TestIssueStoreError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk full")
	h := NewHandler(store, time.Hour)

	_, err := h.Issue("user@test.com")
	assert.Error(t, err)
}

func TestRemoveExpired(t *testing.T) {
	store := newMemStore()
	h := NewHandler(store, time.Hour)

	fresh, err := h.Issue("fresh@test.com")
	require.NoError(t, err)

	stale := Link{ID: "stale", Email: "stale@test.com", ExpireTime: time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, store.PutLink(stale))

	removed, err := h.RemoveExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := store.AllLinks()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}
