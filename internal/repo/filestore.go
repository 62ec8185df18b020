package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// ledgerVersion tags the on-disk layout so it can evolve safely. Files
// without the tag (the legacy layout) load as version 0 and are rewritten
// with the current tag on the next save.
const ledgerVersion = 1

// ledgerFile is the on-disk document: a monotonic id counter plus every
// organization's deals in one flat list.
type ledgerFile struct {
	Version int           `json:"version,omitempty"`
	NextID  int64         `json:"next_id"`
	Deals   []domain.Deal `json:"deals"`
}

// FileStore keeps the whole ledger in memory and flushes the full document
// to a single JSON file after every mutation. Writes go to a temp file in
// the same directory followed by an atomic rename, so a crash mid-write
// leaves the previous file intact.
//
// Access is serialized by an internal mutex; the store is safe for
// concurrent use even though the application drives it single-threaded.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu   sync.Mutex
	data ledgerFile
}

// NewFileStore opens (or initializes) the ledger file at path. A missing
// file starts an empty ledger; a corrupt one is also treated as empty —
// an explicit recovery policy, surfaced as a warning so the operator can
// investigate rather than discovering silent data loss later.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log, data: ledgerFile{Version: ledgerVersion, NextID: 1}}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var doc ledgerFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn().Str("path", path).Err(err).
			Msg("ledger file is corrupt; starting from an empty ledger")
		return s, nil
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	// Never hand out an id at or below one already on disk, whatever the
	// header claims.
	for i := range doc.Deals {
		if doc.Deals[i].ID >= doc.NextID {
			doc.NextID = doc.Deals[i].ID + 1
		}
	}
	doc.Version = ledgerVersion
	s.data = doc
	return s, nil
}

// save flushes the in-memory document to disk atomically. Callers hold s.mu.
func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Load returns a copy of the deals for guildID ("" = all), oldest first
// (insertion order, which the file preserves).
func (s *FileStore) Load(_ context.Context, guildID string) ([]domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Deal, 0, len(s.data.Deals))
	for _, d := range s.data.Deals {
		if guildID == "" || d.GuildID == guildID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Append assigns the next id to d and persists it. The in-memory mutation
// is rolled back when the flush fails, so a retry sees consistent state.
func (s *FileStore) Append(_ context.Context, d *domain.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.data.NextID
	s.data.NextID++
	s.data.Deals = append(s.data.Deals, *d)

	if err := s.save(); err != nil {
		s.data.Deals = s.data.Deals[:len(s.data.Deals)-1]
		s.data.NextID--
		d.ID = 0
		return err
	}
	return nil
}

// Update rewrites the stored deal matching d.ID.
func (s *FileStore) Update(_ context.Context, d *domain.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Deals {
		if s.data.Deals[i].ID == d.ID {
			prev := s.data.Deals[i]
			s.data.Deals[i] = *d
			if err := s.save(); err != nil {
				s.data.Deals[i] = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

// Remove drops the deal with the given id within guildID.
func (s *FileStore) Remove(_ context.Context, guildID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Deals {
		if s.data.Deals[i].ID == id && s.data.Deals[i].GuildID == guildID {
			prev := s.data.Deals
			s.data.Deals = append(append([]domain.Deal{}, prev[:i]...), prev[i+1:]...)
			if err := s.save(); err != nil {
				s.data.Deals = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

// Clear removes every deal for guildID; the id counter is not reset, so
// ids stay unique across a wipe.
func (s *FileStore) Clear(_ context.Context, guildID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Deals
	kept := make([]domain.Deal, 0, len(prev))
	for _, d := range prev {
		if d.GuildID != guildID {
			kept = append(kept, d)
		}
	}
	dropped := int64(len(prev) - len(kept))
	if dropped == 0 {
		return 0, nil
	}
	s.data.Deals = kept
	if err := s.save(); err != nil {
		s.data.Deals = prev
		return 0, err
	}
	return dropped, nil
}
