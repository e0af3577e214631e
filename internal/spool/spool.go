package spool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/relayd/internal/bundle"
)

// ErrNotFound is returned when a bundle ID has no backing file, e.g. it was
// delivered and deleted by a concurrent flush before the caller got to it.
var ErrNotFound = errors.New("spool: bundle not found")

const (
	bundleExt = ".json"
	tmpExt    = ".tmp"
)

// envelope is the on-disk representation of one spooled bundle.
// Payload is base64-encoded by encoding/json.
type envelope struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	AttemptCount int       `json:"attempt_count"`
	NextEligible time.Time `json:"next_eligible"`
	Payload      []byte    `json:"payload"`
}

// Store is a file-backed bundle spool: one JSON envelope file per bundle,
// named <created-unixnano>-<uuid>.json so that lexical filename order is
// creation order. All writes go through a temp-file-then-rename step, so a
// crash mid-write never leaves a half-written envelope visible to listing.
//
// Store is safe for concurrent use, though the delivery engine serialises
// its own access by construction.
type Store struct {
	dir string
	now func() time.Time // injectable for deterministic tests

	mu    sync.Mutex
	index map[string]string // bundle ID → filename
}

// Open creates the spool directory if needed and returns a Store over it.
// Stale temp files from a previous crash are removed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool: create dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("spool: read dir: %w", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tmpExt) {
			// Left over from an interrupted write — the durable envelope
			// (if any) still carries the previous committed state.
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}

	return &Store{
		dir:   dir,
		now:   time.Now,
		index: make(map[string]string),
	}, nil
}

// Dir returns the spool directory path.
func (s *Store) Dir() string { return s.dir }

// Put persists payload as a new bundle and returns its assigned ID.
// This is the handoff point for the upstream collector: once Put returns,
// the bundle is durable and will be picked up by the next flush.
func (s *Store) Put(payload []byte) (string, error) {
	now := s.now().UTC()
	id := uuid.NewString()

	env := envelope{
		ID:           id,
		CreatedAt:    now,
		NextEligible: now,
		Payload:      payload,
	}

	name := fmt.Sprintf("%020d-%s%s", now.UnixNano(), id, bundleExt)
	if err := s.writeEnvelope(name, &env); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.index[id] = name
	s.mu.Unlock()
	return id, nil
}

// ListPending returns refs for all spooled bundles in creation order.
// It rescans the directory on every call so bundles persisted by another
// process (the collector) are always picked up.
func (s *Store) ListPending() ([]bundle.Ref, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("spool: read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), bundleExt) {
			continue
		}
		names = append(names, e.Name())
	}
	// Filenames are zero-padded unix-nano prefixed, so lexical order is
	// creation order.
	sort.Strings(names)

	refs := make([]bundle.Ref, 0, len(names))
	index := make(map[string]string, len(names))
	for _, name := range names {
		env, err := s.readEnvelope(name)
		if err != nil {
			// Unreadable envelope: skip it rather than wedge the whole
			// flush. It stays on disk for manual inspection.
			continue
		}
		index[env.ID] = name
		refs = append(refs, bundle.Ref{
			ID:           env.ID,
			CreatedAt:    env.CreatedAt,
			AttemptCount: env.AttemptCount,
			NextEligible: env.NextEligible,
		})
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return refs, nil
}

// Pending returns the number of bundles currently spooled.
func (s *Store) Pending() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("spool: read dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), bundleExt) {
			n++
		}
	}
	return n, nil
}

// Payload loads the payload bytes for the given bundle ID.
func (s *Store) Payload(id string) ([]byte, error) {
	name, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	env, err := s.readEnvelope(name)
	if err != nil {
		return nil, err
	}
	return env.Payload, nil
}

// Delete removes the bundle from the spool. Deleting an already-removed
// bundle is not an error.
func (s *Store) Delete(id string) error {
	name, err := s.lookup(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("spool: delete %s: %w", id, err)
	}
	s.mu.Lock()
	delete(s.index, id)
	s.mu.Unlock()
	return nil
}

// UpdateMeta durably records a new attempt count and next-eligible time for
// the bundle. The payload and creation time are preserved unchanged.
func (s *Store) UpdateMeta(id string, attemptCount int, nextEligible time.Time) error {
	name, err := s.lookup(id)
	if err != nil {
		return err
	}
	env, err := s.readEnvelope(name)
	if err != nil {
		return err
	}

	env.AttemptCount = attemptCount
	env.NextEligible = nextEligible.UTC()
	return s.writeEnvelope(name, env)
}

// lookup resolves a bundle ID to its filename, rescanning the directory if
// the in-memory index does not know it.
func (s *Store) lookup(id string) (string, error) {
	s.mu.Lock()
	name, ok := s.index[id]
	s.mu.Unlock()
	if ok {
		return name, nil
	}

	if _, err := s.ListPending(); err != nil {
		return "", err
	}

	s.mu.Lock()
	name, ok = s.index[id]
	s.mu.Unlock()
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

// readEnvelope decodes the envelope file with the given name.
func (s *Store) readEnvelope(name string) (*envelope, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("spool: read %s: %w", name, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("spool: decode %s: %w", name, err)
	}
	return &env, nil
}

// writeEnvelope writes env to a temp file and renames it into place, so the
// durable file is always either the old or the new complete envelope.
func (s *Store) writeEnvelope(name string, env *envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("spool: encode %s: %w", env.ID, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + tmpExt
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("spool: write %s: %w", env.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("spool: commit %s: %w", env.ID, err)
	}
	return nil
}
