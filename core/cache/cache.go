// Package cache memoizes solved instances so an identical request skips the
// solver.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/report"
	"github.com/kilianp07/evsched/core/schedule"
)

// ErrNotCacheable is returned by Put for outcomes that must not be reused.
var ErrNotCacheable = errors.New("only optimal outcomes are cached")

// Entry is a cached solve result.
type Entry struct {
	Solver    string         `json:"solver"`
	Status    lp.Status      `json:"status"`
	Objective *float64       `json:"objective,omitempty"`
	Report    *report.Report `json:"report,omitempty"`
	StoredAt  time.Time      `json:"stored_at"`
}

// Cache stores entries under instance fingerprints.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// fingerprintInput is hashed as JSON; field order is fixed by the struct.
type fingerprintInput struct {
	Instance  *model.Instance `json:"instance"`
	Model     schedule.Config `json:"model"`
	Solver    string          `json:"solver"`
	TimeLimit time.Duration   `json:"time_limit"`
	Matcher   string          `json:"matcher"`
}

// Fingerprint hashes everything that can change the solve result.
func Fingerprint(inst *model.Instance, cfg schedule.Config, solver, matcher string, timeLimit time.Duration) (string, error) {
	b, err := json.Marshal(fingerprintInput{
		Instance:  inst,
		Model:     cfg,
		Solver:    solver,
		TimeLimit: timeLimit,
		Matcher:   matcher,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Cacheable reports whether an entry may be stored.
func Cacheable(e Entry) bool { return e.Status == lp.StatusOptimal }

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Put(context.Context, string, Entry) error         { return nil }

// Memory is an in-process cache with an optional TTL and entry cap. When the
// cap is reached the oldest entry is evicted.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]Entry
	order   []string
	now     func() time.Time
}

// NewMemory creates a memory cache. Zero ttl or max disables the limit.
func NewMemory(ttl time.Duration, max int) *Memory {
	return &Memory{ttl: ttl, max: max, entries: make(map[string]Entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(e.StoredAt) > m.ttl {
		m.remove(key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *Memory) Put(_ context.Context, key string, e Entry) error {
	if !Cacheable(e) {
		return ErrNotCacheable
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		m.remove(key)
	}
	for m.max > 0 && len(m.order) >= m.max {
		m.remove(m.order[0])
	}
	m.entries[key] = e
	m.order = append(m.order, key)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) remove(key string) {
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
