package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// SnapshotBackup receives a copy of the serialized store after each flush.
type SnapshotBackup interface {
	Enabled() bool
	Upload(ctx context.Context, snapshot []byte) error
}

// Store holds all bookings grouped by property code and mirrors every
// mutation to a single JSON file. Append and Remove hold one mutex across the
// whole read-modify-write-flush sequence so concurrent webhook deliveries
// cannot lose updates.
type Store struct {
	mu         sync.RWMutex
	path       string
	byProperty map[string][]Booking
	backup     SnapshotBackup
	logger     *logging.Logger
}

// NewStore creates a store persisted at path. Call Load before serving.
func NewStore(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		path:       path,
		byProperty: make(map[string][]Booking),
		logger:     logger,
	}
}

// WithBackup attaches a best-effort snapshot backup.
func (s *Store) WithBackup(backup SnapshotBackup) *Store {
	s.backup = backup
	return s
}

// Load reads the persisted store. A missing file starts empty. Malformed
// content also starts empty and returns the parse error so the caller can
// alert; refusing to start is never an option.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("no bookings file found, starting fresh", "path", s.path)
		return nil
	}
	if err != nil {
		s.logger.Error("failed to read bookings file", "error", err, "path", s.path)
		return fmt.Errorf("booking: load %s: %w", s.path, err)
	}

	var byProperty map[string][]Booking
	if err := json.Unmarshal(data, &byProperty); err != nil {
		s.byProperty = make(map[string][]Booking)
		s.logger.Error("bookings file malformed, starting empty", "error", err, "path", s.path)
		return fmt.Errorf("booking: parse %s: %w", s.path, err)
	}
	if byProperty == nil {
		byProperty = make(map[string][]Booking)
	}
	s.byProperty = byProperty
	s.logger.Info("loaded bookings from file", "path", s.path, "properties", len(byProperty))
	return nil
}

// Append upserts a booking into its property's sequence and flushes the
// store. Re-delivery of a payment id replaces the existing record in place
// instead of duplicating it. A flush failure keeps the in-memory mutation
// and is reported as *PersistError.
func (s *Store) Append(ctx context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.byProperty[b.PropertyCode]
	replaced := false
	for i := range seq {
		if seq[i].ID == b.ID {
			seq[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		s.byProperty[b.PropertyCode] = append(seq, b)
	} else {
		s.logger.Info("replaced existing booking on redelivery", "booking_id", b.ID, "property_code", b.PropertyCode)
	}

	return s.flushLocked(ctx)
}

// Remove deletes a booking by exact id within the given property and
// flushes. Returns ErrNotFound for an unknown property or id.
func (s *Store) Remove(ctx context.Context, propertyCode, id string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.byProperty[propertyCode]
	if !ok {
		return Booking{}, fmt.Errorf("booking: property %s: %w", propertyCode, ErrNotFound)
	}
	for i := range seq {
		if seq[i].ID != id {
			continue
		}
		removed := seq[i]
		s.byProperty[propertyCode] = append(seq[:i:i], seq[i+1:]...)
		return removed, s.flushLocked(ctx)
	}
	return Booking{}, fmt.Errorf("booking: id %s: %w", id, ErrNotFound)
}

// Get returns a copy of one property's bookings in insertion order.
func (s *Store) Get(propertyCode string) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.byProperty[propertyCode]
	out := make([]Booking, len(seq))
	copy(out, seq)
	return out
}

// All returns a deep copy of the whole store.
func (s *Store) All() map[string][]Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Booking, len(s.byProperty))
	for code, seq := range s.byProperty {
		cp := make([]Booking, len(seq))
		copy(cp, seq)
		out[code] = cp
	}
	return out
}

// Count returns the number of bookings for a property.
func (s *Store) Count(propertyCode string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byProperty[propertyCode])
}

// flushLocked rewrites the persisted file from memory. Writes go to a temp
// file in the same directory followed by a rename so a crash mid-write never
// truncates the previous snapshot. Caller holds the write lock.
func (s *Store) flushLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(s.byProperty, "", "  ")
	if err != nil {
		return &PersistError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".bookings-*.json")
	if err != nil {
		return &PersistError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &PersistError{Path: s.path, Err: err}
	}

	if s.backup != nil && s.backup.Enabled() {
		snapshot := make([]byte, len(data))
		copy(snapshot, data)
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := s.backup.Upload(ctx, snapshot); err != nil {
				s.logger.Warn("snapshot backup failed", "error", err)
			}
		}()
	}
	return nil
}
