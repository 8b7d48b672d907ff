package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"investledger-backend/internal/config"
)

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "mock":
		return NewMockStorageService(cfg.BaseURL, cfg.UploadDir)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// ProofKey names the object holding the proof for one deposit transaction.
func ProofKey(userID, transactionID int64, contentType string) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return fmt.Sprintf("proofs/%d/%d/%s%s", userID, transactionID, uuid.NewString(), ext), nil
}

// OwnsKey reports whether key was issued by ProofKey for this user and
// transaction.
func OwnsKey(key string, userID, transactionID int64) bool {
	if strings.Contains(key, "..") {
		return false
	}
	return path.Dir(key) == fmt.Sprintf("proofs/%d/%d", userID, transactionID)
}

// ContentTypeFor maps a key's extension back to its content type.
func ContentTypeFor(key string) string {
	ext := path.Ext(key)
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}
