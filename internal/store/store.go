package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	MemoryStoreType = "MemoryStore"
	LocalStoreType  = "LocalStore"
	MinIOStoreType  = "MinIOStore"
)

var (
	// ErrNotFound is returned by Get for keys that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for empty keys or keys that escape the store.
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a flat key-value object store. Keys are slash-separated paths.
// A Put is atomic: readers see either the previous object or the new one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error

	// List returns every key that starts with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Type() string
}

// Config selects and configures a backend.
type Config struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// New opens the backend named by cfg.Backend: "memory", "local" or "minio".
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "local":
		return NewLocalStore(cfg.Path)
	case "minio", "s3":
		return NewMinIOStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
