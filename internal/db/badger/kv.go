// Package badger is an on-disk key-value store used for the persistent
// embedding cache when no Redis is configured.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tariffdex/internal/db"
)

// KV implements Get/Set/SetWithTTL on a Badger directory.
type KV struct {
	db *badger.DB
}

// Open opens (or creates) a Badger database at dir.
// An empty dir opens an in-memory database.
func Open(dir string, logger *zap.Logger) (*KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &zapAdapter{l: logger.Sugar().Named("badger")}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &KV{db: bdb}, nil
}

// Get retrieves a value by key.
func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (k *KV) Set(_ context.Context, key string, value []byte) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (k *KV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Close flushes and closes the database.
func (k *KV) Close() error {
	return k.db.Close()
}

// zapAdapter routes badger's printf-style logging into zap.
type zapAdapter struct {
	l *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.l.Errorf(msg, args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.l.Warnf(msg, args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.l.Debugf(msg, args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.l.Debugf(msg, args...) }
