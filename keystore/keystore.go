// Package keystore persists tracker records and wallet state in a
// LevelDB database, keyed by wallet address.
//
// The store exists to close the crash window the one-time-key invariant
// leaves open: a key consumed in memory but not yet reflected in the
// persisted counters would be reissued after a restart. Callers must
// write the record back immediately after every consuming tracker call;
// SaveTracker performs a synchronous write for exactly that reason.
package keystore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/keytracker"
	"github.com/eth2030/lamport-wallet/log"
)

// Keystore errors.
var (
	ErrNotFound = errors.New("keystore: no record for address")
	ErrClosed   = errors.New("keystore: store is closed")
)

// trackerKeyPrefix namespaces tracker records in the database.
const trackerKeyPrefix = "tracker:"

// Config holds configuration for the keystore. Zero-valued fields are
// replaced with defaults.
type Config struct {
	Dir    string // database directory (default: "lamportkeys")
	Logger *log.Logger
}

// DefaultConfig returns a Config with standard defaults.
func DefaultConfig() Config {
	return Config{Dir: "lamportkeys"}
}

// Keystore is a durable store of tracker records (thread-safe).
type Keystore struct {
	mu     sync.Mutex
	db     *leveldb.DB
	logger *log.Logger
	closed bool
}

// Open opens (creating if necessary) the keystore database.
func Open(config Config) (*Keystore, error) {
	if config.Dir == "" {
		config.Dir = "lamportkeys"
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	db, err := leveldb.OpenFile(config.Dir, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: opening %s: %w", config.Dir, err)
	}
	return &Keystore{
		db:     db,
		logger: logger.Module("keystore").With("dir", config.Dir),
	}, nil
}

// SaveTracker snapshots the tracker and writes its record synchronously.
// Call this immediately after every consuming call (GetOne, GetN, More,
// Advance) so the persisted counters never lag actual key consumption.
func (ks *Keystore) SaveTracker(addr types.Address, t keytracker.Tracker) error {
	data, err := keytracker.Marshal(t)
	if err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return ErrClosed
	}
	if err := ks.db.Put(trackerKey(addr), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("keystore: writing record for %s: %w", addr.Hex(), err)
	}
	ks.logger.Debug("tracker record saved", "address", addr.Hex(), "kind", t.Kind())
	return nil
}

// LoadTracker rebuilds the tracker persisted for the given address.
func (ks *Keystore) LoadTracker(addr types.Address) (keytracker.Tracker, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return nil, ErrClosed
	}

	data, err := ks.db.Get(trackerKey(addr), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: reading record for %s: %w", addr.Hex(), err)
	}
	return keytracker.Unmarshal(data)
}

// HasTracker reports whether a record exists for the given address.
func (ks *Keystore) HasTracker(addr types.Address) bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return false
	}
	ok, err := ks.db.Has(trackerKey(addr), nil)
	return err == nil && ok
}

// DeleteTracker removes the record for the given address.
func (ks *Keystore) DeleteTracker(addr types.Address) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return ErrClosed
	}
	ok, err := ks.db.Has(trackerKey(addr), nil)
	if err != nil {
		return fmt.Errorf("keystore: checking record for %s: %w", addr.Hex(), err)
	}
	if !ok {
		return ErrNotFound
	}
	return ks.db.Delete(trackerKey(addr), &opt.WriteOptions{Sync: true})
}

// Addresses returns every address with a persisted tracker record.
func (ks *Keystore) Addresses() ([]types.Address, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return nil, ErrClosed
	}

	var addrs []types.Address
	iter := ks.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != len(trackerKeyPrefix)+types.AddressLength {
			continue
		}
		if string(key[:len(trackerKeyPrefix)]) != trackerKeyPrefix {
			continue
		}
		addrs = append(addrs, types.BytesToAddress(key[len(trackerKeyPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("keystore: iterating records: %w", err)
	}
	return addrs, nil
}

// Close releases the underlying database. The store is unusable after.
func (ks *Keystore) Close() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.closed {
		return nil
	}
	ks.closed = true
	return ks.db.Close()
}

// trackerKey builds the database key for an address's tracker record.
func trackerKey(addr types.Address) []byte {
	key := make([]byte, 0, len(trackerKeyPrefix)+types.AddressLength)
	key = append(key, trackerKeyPrefix...)
	key = append(key, addr[:]...)
	return key
}
