package cached

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/plantcare/internal/domain"
)

type blob struct {
	data     []byte
	mimeType string
}

type mockBackend struct {
	blobs map[string]blob
	gets  int
	next  int
}

func newMockBackend() *mockBackend {
	return &mockBackend{blobs: map[string]blob{}}
}

func (m *mockBackend) Put(_ context.Context, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.next++
	id := fmt.Sprintf("file-%d", m.next)
	m.blobs[id] = blob{data: data, mimeType: mimeType}
	return id, nil
}

func (m *mockBackend) Get(_ context.Context, id string) (io.ReadCloser, string, error) {
	m.gets++
	b, ok := m.blobs[id]
	if !ok {
		return nil, "", fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.mimeType, nil
}

func (m *mockBackend) Delete(_ context.Context, id string) error {
	if _, ok := m.blobs[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(m.blobs, id)
	return nil
}

func (m *mockBackend) List(context.Context) ([]string, error) {
	var ids []string
	for id := range m.blobs {
		ids = append(ids, id)
	}
	return ids, nil
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestCachedServesRepeatReadsFromMemory(t *testing.T) {
	backend := newMockBackend()
	store, err := New(backend, 4, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	backend.blobs["file-x"] = blob{data: []byte("leaf"), mimeType: "image/jpeg"}

	rc, mimeType, err := store.Get(ctx, "file-x")
	require.NoError(t, err)
	assert.Equal(t, []byte("leaf"), readAll(t, rc))
	assert.Equal(t, "image/jpeg", mimeType)

	rc, _, err = store.Get(ctx, "file-x")
	require.NoError(t, err)
	assert.Equal(t, []byte("leaf"), readAll(t, rc))
	assert.Equal(t, 1, backend.gets)
}

func TestCachedPutPrimesCache(t *testing.T) {
	backend := newMockBackend()
	store, err := New(backend, 4, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := store.Put(ctx, "image/png", bytes.NewReader([]byte("stem")))
	require.NoError(t, err)
	assert.Equal(t, []byte("stem"), backend.blobs[id].data)

	rc, _, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("stem"), readAll(t, rc))
	assert.Equal(t, 0, backend.gets)
}

func TestCachedSkipsLargeBlobs(t *testing.T) {
	backend := newMockBackend()
	store, err := New(backend, 4, 3, nil)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := store.Put(ctx, "image/png", bytes.NewReader([]byte("too big")))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	rc, _, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("too big"), readAll(t, rc))
	assert.Equal(t, 1, backend.gets)
}

func TestCachedEvictsLeastRecentlyUsed(t *testing.T) {
	backend := newMockBackend()
	store, err := New(backend, 2, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Put(ctx, "image/png", bytes.NewReader([]byte{byte(i)}))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Len())

	_, _, err = store.Get(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.gets)
}

func TestCachedDeleteEvicts(t *testing.T) {
	backend := newMockBackend()
	store, err := New(backend, 4, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := store.Put(ctx, "image/png", bytes.NewReader([]byte("gone")))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	_, _, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), domain.ErrNotFound)
}

func TestCachedRejectsInvalidSize(t *testing.T) {
	_, err := New(newMockBackend(), 0, 0, nil)
	assert.Error(t, err)
}
