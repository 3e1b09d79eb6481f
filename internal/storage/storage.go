// Package storage persists the MAC activation context, the device-side
// analog of non-volatile context management. Persistence is best-effort:
// the control plane stores the context on every sleep cycle and restores
// it once at startup.
package storage

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

// ErrNotFound is returned by Restore when no context has been stored yet.
var ErrNotFound = errors.New("context not found")

// Store defines the device-context store interface.
type Store interface {
	// Restore returns the stored context blob, or ErrNotFound.
	Restore() ([]byte, error)

	// Save stores the given context blob, replacing any previous one.
	Save(b []byte) error

	// Close closes the store.
	Close() error
}

// Setup creates the configured store backend.
func Setup(c config.Config) (Store, error) {
	log.WithFields(log.Fields{
		"backend": c.Storage.Backend,
	}).Info("storage: setting up context store")

	switch c.Storage.Backend {
	case "file", "":
		return NewFileStore(c.Storage.File.Path), nil
	case "redis":
		return NewRedisStore(c.Storage.Redis.URL)
	default:
		return nil, errors.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
}
