// Package backend builds the key-value store selected by configuration.
package backend

import (
	"context"

	"fintrack/internal/kvstore"
)

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and optional cleanup function
type BackendResult struct {
	Store   kvstore.Store
	Cleanup CleanupFunc
}

// Ready reports whether the store can serve requests. Stores without a
// health check are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific, optional seed directory
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
