package ports

import "context"

// CredentialStore is durable key-value storage for tokens and usernames.
// Keys are namespaced "provider/name", e.g. "moodle/token". Implementations
// return an error wrapping domain.ErrNoStoredSession semantics through their
// own not-found errors; callers treat any Get failure on a missing key as
// absence.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
