package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

// Storage is the JSON facade over a KeyValueStore used by the local repository.
// It never returns errors: every fault is logged and degrades to an empty read or a
// no-op write, which keeps the app responsive when the device store misbehaves.
type Storage struct {
	kv KeyValueStore
}

// New creates a Storage facade over kv.
func New(kv KeyValueStore) *Storage {
	if kv == nil {
		panic("storage: nil key-value store") // Programming error at wiring time
	}
	return &Storage{kv: kv}
}

// GetItem decodes the value stored under key into out.
// It reports false when the key is absent or the value cannot be read or decoded.
func (s *Storage) GetItem(ctx context.Context, key string, out any) bool {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Printf("ERROR: Failed to read value for key '%s': %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("ERROR: Failed to decode value for key '%s': %v", key, err)
		return false
	}
	return true
}

// SetItem encodes value as JSON and stores it under key.
// It reports whether the value was written.
func (s *Storage) SetItem(ctx context.Context, key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("ERROR: Failed to encode value for key '%s': %v", key, err)
		return false
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		log.Printf("ERROR: Failed to save value for key '%s': %v", key, err)
		return false
	}
	return true
}

func (s *Storage) RemoveItem(ctx context.Context, key string) {
	if err := s.kv.Remove(ctx, key); err != nil {
		log.Printf("ERROR: Failed to remove key '%s': %v", key, err)
	}
}

func (s *Storage) Clear(ctx context.Context) {
	if err := s.kv.Clear(ctx); err != nil {
		log.Printf("ERROR: Failed to clear storage: %v", err)
	}
}

// GetAllKeys lists the stored keys, or nothing when the store cannot be listed.
func (s *Storage) GetAllKeys(ctx context.Context) []string {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to list storage keys: %v", err)
		return []string{}
	}
	return keys
}
