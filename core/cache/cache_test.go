package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/schedule"
)

func instance() *model.Instance {
	return &model.Instance{
		Parking: model.ParkingConfig{TransformerLimit: 50, Spots: 2, Efficiency: 0.95,
			Chargers: []model.Charger{{ID: 1, Type: model.ChargerAC, Power: 11}}},
		Prices:   []model.PriceSlot{{Time: 0, Price: 20}, {Time: 0.25, Price: 22}},
		Arrivals: []model.Vehicle{{ID: 1, Brand: "Tesla Model 3", ArrivalTime: 0, DepartureTime: 0.5, RequiredEnergy: 4}},
	}
}

func TestFingerprint(t *testing.T) {
	cfg := schedule.DefaultConfig()
	a, err := Fingerprint(instance(), cfg, "cbc", "heuristic", time.Minute)
	require.NoError(t, err)
	b, err := Fingerprint(instance(), cfg, "cbc", "heuristic", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	other := instance()
	other.Arrivals[0].RequiredEnergy = 5
	c, _ := Fingerprint(other, cfg, "cbc", "heuristic", time.Minute)
	assert.NotEqual(t, a, c)

	cfg.Weights.Cost = 2
	d, _ := Fingerprint(instance(), cfg, "cbc", "heuristic", time.Minute)
	assert.NotEqual(t, a, d)

	e, _ := Fingerprint(instance(), schedule.DefaultConfig(), "cbc", "heuristic", 2*time.Minute)
	assert.NotEqual(t, a, e)

	f, _ := Fingerprint(instance(), schedule.DefaultConfig(), "cbc", "table", time.Minute)
	assert.NotEqual(t, a, f)
}

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)
	obj := -4.0
	require.NoError(t, m.Put(ctx, "k", Entry{Status: lp.StatusOptimal, Objective: &obj}))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -4.0, *got.Objective)
	assert.False(t, got.StoredAt.IsZero())

	_, ok, _ = m.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemory_RejectsNonOptimal(t *testing.T) {
	m := NewMemory(0, 0)
	for _, st := range []lp.Status{lp.StatusTimeLimit, lp.StatusInfeasible, lp.StatusNotSolved} {
		err := m.Put(context.Background(), "k", Entry{Status: st})
		assert.True(t, errors.Is(err, ErrNotCacheable), st)
	}
	assert.Equal(t, 0, m.Len())
}

func TestMemory_TTLAndEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute, 2)
	m.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Put(ctx, k, Entry{Status: lp.StatusOptimal}))
	}
	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "oldest entry evicted")

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "c")
	assert.False(t, ok, "expired")
	assert.Equal(t, 1, m.Len())
}

func TestNew(t *testing.T) {
	c, err := New(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	c, err = New(factory.ModuleConfig{Type: "memory", Conf: map[string]any{"ttl": "1h", "max_entries": 10}})
	require.NoError(t, err)
	mem := c.(*Memory)
	assert.Equal(t, time.Hour, mem.ttl)
	assert.Equal(t, 10, mem.max)
}
