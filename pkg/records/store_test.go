package records

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetlens/meetlens/pkg/analysis"
	"github.com/meetlens/meetlens/pkg/transcript"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id string, createdAt time.Time) *Record {
	return &Record{
		ID:        id,
		Mode:      "free",
		CreatedAt: createdAt,
		FileName:  "standup.webm",
		FileSize:  2048,
		MimeType:  "video/webm",
		DiarizationResult: transcript.DiarizationResult{
			Utterances: []transcript.Utterance{{Speaker: 0, Text: "good morning"}},
		},
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(testRecord("rec-1", now)))

	got, err := store.Get("rec-1")
	require.NoError(t, err)
	assert.Equal(t, "standup.webm", got.FileName)
	assert.True(t, got.CreatedAt.Equal(now))
	require.Len(t, got.DiarizationResult.Utterances, 1)
	assert.Nil(t, got.FullAnalysis)
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get("absent")

	var notFound *ErrNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "absent", notFound.ID)
}

func TestStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	base := time.Now().UTC()
	require.NoError(t, store.Save(testRecord("old", base.Add(-time.Hour))))
	require.NoError(t, store.Save(testRecord("new", base)))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "old", records[1].ID)
}

func TestAttachFullAnalysisComputesOnce(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(testRecord("rec-2", time.Now().UTC())))

	calls := 0
	compute := func() (*analysis.Result, error) {
		calls++
		return &analysis.Result{Keywords: []string{"roadmap"}}, nil
	}

	first, err := store.AttachFullAnalysis("rec-2", compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"roadmap"}, first.Keywords)
	assert.Equal(t, 1, calls)

	// Second attach hits the cached copy.
	second, err := store.AttachFullAnalysis("rec-2", compute)
	require.NoError(t, err)
	assert.Equal(t, first.Keywords, second.Keywords)
	assert.Equal(t, 1, calls)
}

func TestAttachFullAnalysisComputeFailureNotCached(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(testRecord("rec-3", time.Now().UTC())))

	_, err := store.AttachFullAnalysis("rec-3", func() (*analysis.Result, error) {
		return nil, fmt.Errorf("analyzer crashed")
	})
	require.Error(t, err)

	got, err := store.Get("rec-3")
	require.NoError(t, err)
	assert.Nil(t, got.FullAnalysis)
}
