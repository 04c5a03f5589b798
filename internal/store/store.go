// Package store keeps generated symptom reports so their PDF can be
// downloaded again later.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	// ErrNotFound is returned when no report has the requested ID.
	ErrNotFound = errors.New("report not found")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Record is one analysis as shown to the user.
type Record struct {
	ID        string    `json:"id"`
	Symptoms  string    `json:"symptoms"`
	Address   string    `json:"address"`
	Report    string    `json:"report"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists report records.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	Driver      string
	DatabaseURL string
	SQLiteDir   string
}

// Open returns the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLiteDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// prepare assigns an ID and creation time when the caller left them unset.
func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.CreatedAt = rec.CreatedAt.Truncate(time.Microsecond)
}

// validID rejects IDs that could never have been issued.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Save(ctx context.Context, rec *Record) error {
	prepare(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = *rec
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
