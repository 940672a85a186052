package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// identityKey is the single key the logged-in user is stored under.
var identityKey = []byte("user")

// IdentityStore persists the logged-in identity across process restarts in
// an embedded badger database.
type IdentityStore struct {
	db *badger.DB
}

// OpenIdentityStore opens the store in dir, creating it if needed. An empty
// dir keeps everything in memory.
func OpenIdentityStore(dir string, logger *slog.Logger) (*IdentityStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create state directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open identity store: %w", err)
	}
	return &IdentityStore{db: db}, nil
}

// Load returns the stored identity, or nil when nobody is logged in.
func (s *IdentityStore) Load() (*Identity, error) {
	var id *Identity
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(identityKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var stored Identity
			if err := json.Unmarshal(val, &stored); err != nil {
				return fmt.Errorf("decode stored identity: %w", err)
			}
			id = &stored
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return id, nil
}

// Save replaces the stored identity.
func (s *IdentityStore) Save(id Identity) error {
	val, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(identityKey, val)
	}); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Clear removes the stored identity. Clearing an empty store is not an error.
func (s *IdentityStore) Clear() error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(identityKey)
	}); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *IdentityStore) Close() error {
	return s.db.Close()
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
