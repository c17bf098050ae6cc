package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinkpixel/gumdrop"
)

// StoreKey is the key under which a Backend conventionally keeps the
// project list.
const StoreKey = "gumdrop:projects"

// ErrNotFound is returned by Store.Load and Store.Delete for unknown
// projects.
var ErrNotFound = errors.New("project: not found")

// Backend persists the store's single blob. Implementations wrap their
// own failures; the store reports them as gumdrop.ErrIOFailure.
type Backend interface {
	// Get returns the stored blob, or nil if nothing was stored yet.
	Get(ctx context.Context) ([]byte, error)
	// Set replaces the stored blob.
	Set(ctx context.Context, data []byte) error
}

// MemoryBackend keeps the blob in memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// Get implements Backend.
func (m *MemoryBackend) Get(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data), nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = slices.Clone(data)
	return nil
}

// Record is one saved project.
type Record struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Updated time.Time       `json:"updated"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Project json.RawMessage `json:"project"`
}

// Summary describes a Record without its project payload.
type Summary struct {
	ID      string
	Name    string
	Updated time.Time
	Width   int
	Height  int
}

// Store is the auto-save project list. Projects are listed newest first.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock sets the clock used for Record.Updated.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a store persisted through backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the saved projects, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = Summary{ID: r.ID, Name: r.Name, Updated: r.Updated, Width: r.Width, Height: r.Height}
	}
	return out, nil
}

// Save stores doc under id, or under name when id is empty. An existing
// record with the same id, or with the same name when id is empty, is
// replaced; otherwise a new record with a fresh id is created. Save
// returns the record's id.
func (s *Store) Save(ctx context.Context, id, name string, doc *gumdrop.Document) (string, error) {
	if name == "" {
		name = doc.Metadata().Title
	}
	payload, err := Marshal(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read(ctx)
	if err != nil {
		return "", err
	}

	idx := slices.IndexFunc(recs, func(r Record) bool {
		if id != "" {
			return r.ID == id
		}
		return r.Name == name
	})
	rec := Record{
		ID:      id,
		Name:    name,
		Updated: s.now().UTC(),
		Width:   doc.Width(),
		Height:  doc.Height(),
		Project: payload,
	}
	if idx >= 0 {
		rec.ID = recs[idx].ID
		recs = slices.Delete(recs, idx, idx+1)
	} else if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	recs = slices.Insert(recs, 0, rec)

	if err := s.write(ctx, recs); err != nil {
		return "", err
	}
	gumdrop.Logger().Info("project: saved", "id", rec.ID, "name", rec.Name, "replaced", idx >= 0)
	return rec.ID, nil
}

// Load decodes the project with the given id, or failing that the first
// project with that name.
func (s *Store) Load(ctx context.Context, idOrName string) (*gumdrop.Document, error) {
	s.mu.Lock()
	recs, err := s.read(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	idx := find(recs, idOrName)
	if idx < 0 {
		return nil, fmt.Errorf("project: load %q: %w", idOrName, ErrNotFound)
	}
	return Unmarshal(recs[idx].Project)
}

// Delete removes the project with the given id or name.
func (s *Store) Delete(ctx context.Context, idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read(ctx)
	if err != nil {
		return err
	}
	idx := find(recs, idOrName)
	if idx < 0 {
		return fmt.Errorf("project: delete %q: %w", idOrName, ErrNotFound)
	}
	return s.write(ctx, slices.Delete(recs, idx, idx+1))
}

// Clear removes every project.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, []Record{})
}

func find(recs []Record, idOrName string) int {
	if i := slices.IndexFunc(recs, func(r Record) bool { return r.ID == idOrName }); i >= 0 {
		return i
	}
	return slices.IndexFunc(recs, func(r Record) bool { return r.Name == idOrName })
}

func (s *Store) read(ctx context.Context) ([]Record, error) {
	data, err := s.backend.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("project: store read: %v: %w", err, gumdrop.ErrIOFailure)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		// a corrupt list reads as empty, the next save overwrites it
		gumdrop.Logger().Warn("project: discarding unreadable store", "err", err)
		return nil, nil
	}
	return recs, nil
}

func (s *Store) write(ctx context.Context, recs []Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("project: store encode: %w", err)
	}
	if err := s.backend.Set(ctx, data); err != nil {
		return fmt.Errorf("project: store write: %v: %w", err, gumdrop.ErrIOFailure)
	}
	return nil
}
