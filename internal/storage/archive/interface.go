package archive

import "context"

// Storage is where finished backtest results are persisted. Paths are
// relative, forward-slash separated, and opaque to the backend.
type Storage interface {
	// Write stores data at the given path, replacing any existing object.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves the object at the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all stored paths under the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at the given path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is stored at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}
