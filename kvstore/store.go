// Package kvstore defines the flat key/value persistence the session core
// runs on. Two scopes exist by convention: a tab-scoped store holding state
// private to one client context, and an origin-scoped store shared by every
// open tab. Which scope a Store represents is decided by the caller wiring it.
package kvstore

// Store is a flat string key/value namespace.
type Store interface {
	// Get returns the value for key and whether an entry exists.
	Get(key string) (string, bool, error)

	// Set writes the value for key, overwriting any existing entry.
	Set(key, value string) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(key string) error
}
