// Package cache keeps finished generations in memory so identical requests
// are answered without repeating the simulated work.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"dreamscape/internal/imagegen"
)

const (
	generationPrefix = "gen:"
	requestPrefix    = "req:"
)

// Store is an in-memory Badger instance holding generations under two keys:
// the generation ID and the request key that produced it.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open starts an in-memory store. A zero ttl keeps entries for the lifetime
// of the process.
func Open(ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the generation cached for a request key.
func (s *Store) Get(ctx context.Context, key string) (*imagegen.Generation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var gen *imagegen.Generation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(requestPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		gen, err = readGeneration(txn, string(id))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return gen, gen != nil, nil
}

// GetByID returns a cached generation by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*imagegen.Generation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var gen *imagegen.Generation
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		gen, err = readGeneration(txn, id)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache get by id: %w", err)
	}
	return gen, gen != nil, nil
}

// Put stores gen under both its ID and the request key.
func (s *Store) Put(ctx context.Context, key string, gen *imagegen.Generation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if gen == nil || gen.ID == "" {
		return errors.New("cache put: generation id is required")
	}
	stored := *gen
	stored.Cached = false
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("cache put: encode: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(generationPrefix+gen.ID, payload)); err != nil {
			return err
		}
		return txn.SetEntry(s.entry(requestPrefix+key, []byte(gen.ID)))
	})
}

func (s *Store) entry(key string, value []byte) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return e
}

func readGeneration(txn *badger.Txn, id string) (*imagegen.Generation, error) {
	item, err := txn.Get([]byte(generationPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gen imagegen.Generation
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &gen)
	}); err != nil {
		return nil, err
	}
	return &gen, nil
}
