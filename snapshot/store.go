// ABOUTME: Charm KV backed store for pre-merge contact snapshots
// ABOUTME: Keeps the original contacts of every run so merges can be undone by hand

package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/contactmerge/models"
)

// AppName is the Charm KV database name.
const AppName = "contactmerge"

const keyPrefix = "snapshot/"

// backend is the subset of charm/kv.KV the store needs.
type backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Options configures the charm connection.
type Options struct {
	Host     string
	AutoSync bool
}

// Store reads and writes snapshots.
type Store struct {
	kv       backend
	autoSync bool
	mu       sync.RWMutex
}

// Open connects to Charm KV, syncing first when auto-sync is on.
func Open(opts Options) (*Store, error) {
	if opts.Host != "" {
		_ = os.Setenv("CHARM_HOST", opts.Host)
	}

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	// Sync on startup to pull remote changes
	if opts.AutoSync {
		_ = db.Sync()
	}

	return &Store{kv: db, autoSync: opts.AutoSync}, nil
}

func snapshotKey(runID, resourceName string) []byte {
	return []byte(keyPrefix + runID + "/" + resourceName)
}

// Save stores contact under runID, replacing an earlier snapshot of the
// same contact in that run.
func (s *Store) Save(runID string, contact models.Contact) error {
	if runID == "" || contact.ResourceName == "" {
		return fmt.Errorf("snapshot needs a run ID and a resource name")
	}

	data, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(snapshotKey(runID, contact.ResourceName), data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	// Sync while still holding lock to avoid race condition
	if s.autoSync {
		_ = s.kv.Sync()
	}
	return nil
}

// Get returns one snapshot, or nil when there is none.
func (s *Store) Get(runID, resourceName string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.kv.Get(snapshotKey(runID, resourceName))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var c models.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &c, nil
}

// List returns every snapshot of runID ordered by resource name.
func (s *Store) List(runID string) ([]models.Contact, error) {
	keys, err := s.keysWithPrefix(keyPrefix + runID + "/")
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]models.Contact, 0, len(keys))
	for _, k := range keys {
		data, err := s.kv.Get([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		var c models.Contact
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", k, err)
		}
		contacts = append(contacts, c)
	}

	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].ResourceName < contacts[j].ResourceName
	})
	return contacts, nil
}

// Runs returns the IDs of runs with snapshots, newest first.
func (s *Store) Runs() ([]string, error) {
	keys, err := s.keysWithPrefix(keyPrefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var runs []string
	for _, k := range keys {
		runID, _, ok := strings.Cut(strings.TrimPrefix(k, keyPrefix), "/")
		if !ok {
			continue
		}
		if _, dup := seen[runID]; dup {
			continue
		}
		seen[runID] = struct{}{}
		runs = append(runs, runID)
	}

	// Run IDs are ULIDs, so lexical order is time order.
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	return runs, nil
}

// Prune deletes every snapshot of runID and returns how many were removed.
func (s *Store) Prune(runID string) (int, error) {
	keys, err := s.keysWithPrefix(keyPrefix + runID + "/")
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		if err := s.kv.Delete([]byte(k)); err != nil {
			return 0, fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}

	if s.autoSync && len(keys) > 0 {
		_ = s.kv.Sync()
	}
	return len(keys), nil
}

// Sync performs a manual sync with the charm server.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Sync()
}

func (s *Store) keysWithPrefix(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var matched []string
	for _, k := range all {
		if strings.HasPrefix(string(k), prefix) {
			matched = append(matched, string(k))
		}
	}
	return matched, nil
}
