// Package upload implements resumable chunked uploads: an init/upload/
// complete/abort session lifecycle with per-session temp directories
// and a background sweeper for abandoned sessions.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
)

// InitRequest declares an upload before any chunk is sent.
type InitRequest struct {
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	MimeType    string `json:"mimeType"`
	TotalChunks int    `json:"totalChunks"`
}

// Progress reports chunk arrival state after each write.
type Progress struct {
	UploadID   string `json:"uploadId"`
	ChunkIndex int    `json:"chunkIndex"`
	Received   int    `json:"received"`
	Total      int    `json:"total"`
	Percent    int    `json:"progress"`
}

// Completed is a fully merged upload ready for processing. Cleanup
// must be called exactly once, success or failure.
type Completed struct {
	Session *Session
	Path    string
}

// Manager owns the upload session lifecycle.
type Manager struct {
	store         SessionStore
	log           logging.Logger
	maxSize       int64
	idleTimeout   time.Duration
	sweepInterval time.Duration
}

// ManagerOptions configures a Manager; zero values fall back to the
// production defaults.
type ManagerOptions struct {
	MaxSize       int64
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

func NewManager(store SessionStore, log logging.Logger, opts ManagerOptions) *Manager {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 500 << 20
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Minute
	}
	return &Manager{
		store:         store,
		log:           log,
		maxSize:       opts.MaxSize,
		idleTimeout:   opts.IdleTimeout,
		sweepInterval: opts.SweepInterval,
	}
}

// Init validates the declaration and opens a session with its own temp
// directory. Oversized declarations are rejected before any state is
// created.
func (m *Manager) Init(ctx context.Context, req InitRequest) (*Session, error) {
	if req.FileName == "" || req.FileSize <= 0 || req.MimeType == "" || req.TotalChunks <= 0 {
		return nil, fmt.Errorf("upload init: missing required fields")
	}
	if req.FileSize > m.maxSize {
		return nil, &mlerrors.CapacityError{Size: req.FileSize, MaxSize: m.maxSize}
	}

	id := uuid.NewString()
	tmpDir, err := os.MkdirTemp("", "upload-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	session := &Session{
		ID:          id,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
		TotalChunks: req.TotalChunks,
		TmpDir:      tmpDir,
		CreatedAt:   time.Now().UTC(),
		Received:    make(map[int]bool),
	}
	if err := m.store.Put(ctx, session); err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}

	m.log.Info("upload session initialized",
		logging.F("upload_id", id),
		logging.F("file_name", req.FileName),
		logging.F("file_size", req.FileSize),
		logging.F("total_chunks", req.TotalChunks))
	return session, nil
}

// WriteChunk stores one chunk. Chunks may arrive in any order and a
// re-sent index simply overwrites the previous copy.
func (m *Manager) WriteChunk(ctx context.Context, id string, index int, data io.Reader) (Progress, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	if index < 0 || index >= session.TotalChunks {
		return Progress{}, fmt.Errorf("upload %s: chunk index %d out of range [0,%d)", id, index, session.TotalChunks)
	}

	chunkPath := filepath.Join(session.TmpDir, fmt.Sprintf("chunk-%d", index))
	f, err := os.Create(chunkPath)
	if err != nil {
		return Progress{}, fmt.Errorf("creating chunk file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(chunkPath)
		return Progress{}, fmt.Errorf("writing chunk %d: %w", index, err)
	}
	if err := f.Close(); err != nil {
		return Progress{}, fmt.Errorf("closing chunk %d: %w", index, err)
	}

	received, err := m.store.MarkChunk(ctx, id, index)
	if err != nil {
		return Progress{}, err
	}

	return Progress{
		UploadID:   id,
		ChunkIndex: index,
		Received:   received,
		Total:      session.TotalChunks,
		Percent:    received * 100 / session.TotalChunks,
	}, nil
}

// Complete verifies all chunks arrived and merges them in index order
// into a single file, deleting each chunk as it is consumed. The
// session itself stays alive until Cleanup.
func (m *Manager) Complete(ctx context.Context, id string) (*Completed, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.ReceivedCount() != session.TotalChunks {
		return nil, mlerrors.NewIncompleteUpload(id, session.ReceivedCount(), session.TotalChunks)
	}

	mergedPath := filepath.Join(session.TmpDir, "merged")
	out, err := os.Create(mergedPath)
	if err != nil {
		return nil, fmt.Errorf("creating merged file: %w", err)
	}

	for i := 0; i < session.TotalChunks; i++ {
		chunkPath := filepath.Join(session.TmpDir, fmt.Sprintf("chunk-%d", i))
		in, err := os.Open(chunkPath)
		if err != nil {
			out.Close()
			os.Remove(mergedPath)
			return nil, fmt.Errorf("reading chunk %d: %w", i, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			os.Remove(mergedPath)
			return nil, fmt.Errorf("merging chunk %d: %w", i, err)
		}
		os.Remove(chunkPath)
	}
	if err := out.Close(); err != nil {
		os.Remove(mergedPath)
		return nil, fmt.Errorf("closing merged file: %w", err)
	}

	m.log.Info("upload merged",
		logging.F("upload_id", id),
		logging.F("file_name", session.FileName),
		logging.F("chunks", session.TotalChunks))
	return &Completed{Session: session, Path: mergedPath}, nil
}

// Cleanup removes the session and everything under its temp directory.
// Safe to call more than once.
func (m *Manager) Cleanup(ctx context.Context, session *Session) {
	if err := os.RemoveAll(session.TmpDir); err != nil {
		m.log.Warn("session cleanup failed",
			logging.F("upload_id", session.ID), logging.Err(err))
	}
	if err := m.store.Delete(ctx, session.ID); err != nil {
		m.log.Warn("session delete failed",
			logging.F("upload_id", session.ID), logging.Err(err))
	}
}

// Abort discards a session. Aborting an unknown session is not an
// error.
func (m *Manager) Abort(ctx context.Context, id string) error {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil
	}
	m.Cleanup(ctx, session)
	m.log.Info("upload aborted", logging.F("upload_id", id))
	return nil
}

// RunSweeper removes sessions idle past the timeout. Blocks until ctx
// is cancelled; run it in its own goroutine.
func (m *Manager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		m.log.Warn("session sweep failed", logging.Err(err))
		return
	}
	cutoff := time.Now().UTC().Add(-m.idleTimeout)
	for _, session := range sessions {
		if session.CreatedAt.Before(cutoff) {
			m.log.Info("cleaning up expired session",
				logging.F("upload_id", session.ID),
				logging.F("created_at", session.CreatedAt))
			m.Cleanup(ctx, session)
		}
	}
}
