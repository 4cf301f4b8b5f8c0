package storage

import (
	"alcyxob/myhealth/internal/config"
	"fmt"
	"io"
	"log"
)

// Open builds the KeyValueStore selected by cfg.Driver.
// The returned closer releases driver resources and is never nil.
func Open(cfg config.StoreConfig, s3cfg config.S3Config) (KeyValueStore, io.Closer, error) {
	switch cfg.Driver {
	case "memory":
		log.Println("INFO: Using in-memory local store")
		return NewMemoryStore(), nopCloser{}, nil
	case "", "sqlite":
		store, err := NewSQLiteStore(cfg.Path, cfg.Debug)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("INFO: Using SQLite local store at %s", cfg.Path)
		return store, store, nil
	case "s3":
		store, err := NewS3Store(s3cfg, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
