// Package storage provides file storage for fabric swatches, uploaded room
// photos and generated mockups.
//
// This package defines a Storage interface with implementations for:
// - LocalStorage: File system storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for file storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key already exists and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key.
	// The caller must close the returned reader. Returns ErrNotFound if the
	// key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object at the specified key.
	// Private objects get a presigned URL valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it is detected from the key's extension.
	ContentType string

	// MaxSize specifies the maximum allowed size in bytes.
	// If the data exceeds this size, ErrTooLarge is returned.
	// A value of 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// CacheControl is sent with the object where the backend supports it.
	CacheControl string
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string    // Object key/path
	Size         int64     // Size in bytes
	ContentType  string    // MIME type
	LastModified time.Time // Last modification time
	ETag         string    // Entity tag (if available)
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	// Example: "./storage"
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the public URL for the bucket (if using a custom domain).
	// If empty, presigned URLs are used for all access.
	PublicURL string

	// Region is required by the AWS SDK. R2 accepts "auto".
	Region string

	// Endpoint overrides the account endpoint. Used in tests.
	Endpoint string
}

// Config selects and configures a provider.
type Config struct {
	Provider string // ProviderLocal or ProviderR2
	Local    LocalConfig
	R2       R2Config
}

// =============================================================================
// Provider Constants
// =============================================================================

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// New creates the configured storage backend.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal:
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// =============================================================================
// Key Generation Helpers
// =============================================================================

// FabricKey is where a product's swatch lives.
// Format: fabrics/{slug}.jpg
func FabricKey(slug string) string {
	return fmt.Sprintf("fabrics/%s.jpg", slug)
}

// MockupKey generates a key for a rendered mockup.
// Format: mockups/{uuid}.jpg
func MockupKey() string {
	return fmt.Sprintf("mockups/%s.jpg", uuid.New())
}
