package storage

import (
	"context"
	"errors"
)

// Keys persisted by the local repository. Each key maps to a JSON-encoded array of records,
// except GuestModeKey which holds a JSON boolean.
const (
	WorkoutsKey     = "myhealth_saved_workouts"
	RoutinesKey     = "myhealth_workout_routines"
	HistoryKey      = "myhealth_workout_history"
	MeasurementsKey = "myhealth_body_measurements"
	GuestModeKey    = "myhealth_guest_mode"
)

// ErrKeyNotFound is returned by a KeyValueStore when the key has no entry.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore defines the durable key-value capability the local repository is built on.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the raw value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear deletes every key.
	Clear(ctx context.Context) error

	// Keys lists all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}
