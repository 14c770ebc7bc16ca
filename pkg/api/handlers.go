// Package api exposes the chunked-upload protocol and record lookups
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/orchestrate"
	"github.com/meetlens/meetlens/pkg/records"
	"github.com/meetlens/meetlens/pkg/upload"
)

// Handler serves the upload lifecycle and persisted records.
type Handler struct {
	Uploads  *upload.Manager
	Pipeline *orchestrate.Pipeline
	Records  *records.Store
	Log      logging.Logger
}

// Upload dispatches the four actions of the chunked upload protocol.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	switch r.URL.Query().Get("action") {
	case "init":
		h.uploadInit(w, r)
	case "upload":
		h.uploadChunk(w, r)
	case "complete":
		h.uploadComplete(w, r)
	case "abort":
		h.uploadAbort(w, r)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid action"})
	}
}

func (h *Handler) uploadInit(w http.ResponseWriter, r *http.Request) {
	var req upload.InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	session, err := h.Uploads.Init(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"uploadId": session.ID,
		"message":  "Upload session initialized",
	})
}

func (h *Handler) uploadChunk(w http.ResponseWriter, r *http.Request) {
	uploadID := r.URL.Query().Get("uploadId")
	if uploadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing uploadId"})
		return
	}
	chunkIndex, err := strconv.Atoi(r.URL.Query().Get("chunkIndex"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chunkIndex"})
		return
	}

	progress, err := h.Uploads.WriteChunk(r.Context(), uploadID, chunkIndex, r.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type completeRequest struct {
	UploadID string `json:"uploadId"`
	Mode     string `json:"mode"`
}

func (h *Handler) uploadComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UploadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing uploadId"})
		return
	}
	if req.Mode == "" {
		req.Mode = "free"
	}

	completed, err := h.Uploads.Complete(r.Context(), req.UploadID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// Session cleanup is unconditional once processing finishes.
	defer h.Uploads.Cleanup(r.Context(), completed.Session)

	// Processing may outlive an impatient client; abort only severs
	// the response, not the session-level work already committed.
	record, err := h.Pipeline.Run(context.WithoutCancel(r.Context()), orchestrate.RunInput{
		Path:     completed.Path,
		FileName: completed.Session.FileName,
		FileSize: completed.Session.FileSize,
		MimeType: completed.Session.MimeType,
		Mode:     req.Mode,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"analysisId":        record.ID,
		"diarizationResult": record.DiarizationResult,
		"fullAnalysis":      record.FullAnalysis,
		"message":           "Upload and processing complete",
	})
}

func (h *Handler) uploadAbort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UploadID string `json:"uploadId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UploadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing uploadId"})
		return
	}
	if err := h.Uploads.Abort(r.Context(), req.UploadID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Upload aborted"})
}

// ListRecords serves persisted analyses, newest first, without the
// heavyweight analysis bodies.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET required"})
		return
	}

	all, err := h.Records.List()
	if err != nil {
		h.writeError(w, err)
		return
	}

	type summary struct {
		ID        string `json:"id"`
		Mode      string `json:"mode"`
		CreatedAt string `json:"createdAt"`
		FileName  string `json:"fileName"`
		FileSize  int64  `json:"fileSize"`
	}
	out := make([]summary, 0, len(all))
	for _, rec := range all {
		out = append(out, summary{
			ID:        rec.ID,
			Mode:      rec.Mode,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			FileName:  rec.FileName,
			FileSize:  rec.FileSize,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

// GetRecord serves one full record by id.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET required"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/records/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing record id"})
		return
	}

	record, err := h.Records.Get(id)
	if err != nil {
		var notFound *records.ErrNotFound
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps the error taxonomy onto HTTP statuses with
// actionable messages.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var capErr *mlerrors.CapacityError
	var sessionErr *mlerrors.SessionError
	switch {
	case errors.As(err, &capErr):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &sessionErr):
		if sessionErr.Code == mlerrors.CodeUnknownSession {
			status = http.StatusNotFound
		} else {
			status = http.StatusBadRequest
		}
	case mlerrors.IsTransientOverload(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", logging.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": mlerrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
