package storage

import "context"

// KV is the persistence adapter consumed by the account directory and
// the task store: string keys mapped to JSON-serializable values. It
// carries no business logic.
type KV interface {
	// Get decodes the value stored under key into out. It reports
	// absence as (false, nil); an error means the read itself failed.
	Get(ctx context.Context, key string, out any) (bool, error)
	// Set stores val under key, replacing any previous value.
	Set(ctx context.Context, key string, val any) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// AccountKey returns the storage key for an account record. The email
// must already be normalized.
func AccountKey(email string) string {
	return "account:" + email
}

// TasksKey returns the storage key for an account's task collection.
func TasksKey(email string) string {
	return "tasks:" + email
}
