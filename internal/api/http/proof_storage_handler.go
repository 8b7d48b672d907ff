package http

import (
	"io"
	"net/http"

	"investledger-backend/internal/logger"
	"investledger-backend/internal/storage"
)

// ProofStorageHandler serves the presigned URLs issued by mock storage
type ProofStorageHandler struct {
	files        storage.LocalFiles
	allowedTypes map[string]bool
}

// NewProofStorageHandler creates a new upload handler
func NewProofStorageHandler(files storage.LocalFiles, allowedTypes []string) *ProofStorageHandler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &ProofStorageHandler{files: files, allowedTypes: allowed}
}

// HandleMockUpload handles HTTP PUT requests to mock presigned URLs
func (h *ProofStorageHandler) HandleMockUpload(w http.ResponseWriter, r *http.Request) {
	// Get storage key from query parameter
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	// The extension fixed at issue time must match what is sent
	contentType := r.Header.Get("Content-Type")
	if !h.allowedTypes[contentType] || storage.ContentTypeFor(key) != contentType {
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}

	if err := h.files.SaveFile(key, r.Body); err != nil {
		logger.Error("Failed to save proof", "key", key, "error", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	// Return success (mimic S3 response)
	w.Header().Set("ETag", `"mock-etag-success"`)
	w.WriteHeader(http.StatusOK)
}

// HandleMockDownload handles HTTP GET requests to download proofs
func (h *ProofStorageHandler) HandleMockDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	file, err := h.files.ReadFile(key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", storage.ContentTypeFor(key))
	w.Header().Set("Cache-Control", "private, max-age=300")

	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Proof download interrupted", "key", key, "error", err)
	}
}
