package upload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewMemoryStore(), logging.Nop(), ManagerOptions{
		MaxSize:     1 << 20,
		IdleTimeout: time.Minute,
	})
}

func initSession(t *testing.T, m *Manager, totalChunks int) *Session {
	t.Helper()
	session, err := m.Init(context.Background(), InitRequest{
		FileName:    "meeting.webm",
		FileSize:    1024,
		MimeType:    "video/webm",
		TotalChunks: totalChunks,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Cleanup(context.Background(), session) })
	return session
}

func TestManagerInitRejectsOversizedFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Init(context.Background(), InitRequest{
		FileName:    "huge.mp4",
		FileSize:    2 << 20,
		MimeType:    "video/mp4",
		TotalChunks: 1,
	})

	var capErr *mlerrors.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, int64(2<<20), capErr.Size)
}

func TestManagerInitRejectsMissingFields(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Init(context.Background(), InitRequest{FileName: "x"})
	assert.Error(t, err)
}

func TestManagerUploadLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	session := initSession(t, m, 3)

	// Out-of-order chunk arrival.
	for _, idx := range []int{2, 0, 1} {
		progress, err := m.WriteChunk(ctx, session.ID, idx, bytes.NewReader([]byte{byte('a' + idx)}))
		require.NoError(t, err)
		assert.Equal(t, idx, progress.ChunkIndex)
		assert.Equal(t, 3, progress.Total)
	}

	completed, err := m.Complete(ctx, session.ID)
	require.NoError(t, err)

	data, err := os.ReadFile(completed.Path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	// Chunks are deleted as they are merged.
	_, err = os.Stat(filepath.Join(session.TmpDir, "chunk-0"))
	assert.True(t, os.IsNotExist(err))

	m.Cleanup(ctx, session)
	_, err = os.Stat(session.TmpDir)
	assert.True(t, os.IsNotExist(err))
	_, err = m.Complete(ctx, session.ID)
	assert.Error(t, err)
}

func TestManagerCompleteIncomplete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	session := initSession(t, m, 2)

	_, err := m.WriteChunk(ctx, session.ID, 0, bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	_, err = m.Complete(ctx, session.ID)
	var sessionErr *mlerrors.SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, mlerrors.CodeIncompleteUpload, sessionErr.Code)
}

func TestManagerResendOverwritesChunk(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	session := initSession(t, m, 1)

	_, err := m.WriteChunk(ctx, session.ID, 0, bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	progress, err := m.WriteChunk(ctx, session.ID, 0, bytes.NewReader([]byte("second")))
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Received)

	completed, err := m.Complete(ctx, session.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(completed.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestManagerWriteChunkUnknownSession(t *testing.T) {
	m := newTestManager(t)
	_, err := m.WriteChunk(context.Background(), "nope", 0, bytes.NewReader(nil))

	var sessionErr *mlerrors.SessionError
	require.True(t, errors.As(err, &sessionErr))
	assert.Equal(t, mlerrors.CodeUnknownSession, sessionErr.Code)
}

func TestManagerWriteChunkIndexOutOfRange(t *testing.T) {
	m := newTestManager(t)
	session := initSession(t, m, 2)
	_, err := m.WriteChunk(context.Background(), session.ID, 5, bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestManagerAbortIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	session := initSession(t, m, 1)

	require.NoError(t, m.Abort(ctx, session.ID))
	_, err := os.Stat(session.TmpDir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, m.Abort(ctx, session.ID))
	require.NoError(t, m.Abort(ctx, "never-existed"))
}

func TestManagerSweepRemovesExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, logging.Nop(), ManagerOptions{IdleTimeout: time.Minute})

	session := initSession(t, m, 1)
	session.CreatedAt = time.Now().UTC().Add(-2 * time.Minute)

	m.sweep(ctx)

	_, err := store.Get(ctx, session.ID)
	assert.Error(t, err)
	_, err = os.Stat(session.TmpDir)
	assert.True(t, os.IsNotExist(err))
}

func TestMemoryStoreListSortedByAge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Put(ctx, &Session{
			ID:        id,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "c", sessions[0].ID)
	assert.Equal(t, "b", sessions[2].ID)
}
