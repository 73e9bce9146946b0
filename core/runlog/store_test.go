package runlog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/report"
)

func ptr(v float64) *float64 { return &v }

func sampleRecords(base time.Time) []Record {
	return []Record{
		{RunID: "r1", Instance: "test_system_1.json", Timestamp: base, Status: "optimal", Objective: ptr(-12.5), Solver: "cbc", Totals: report.Totals{Required: 40, Delivered: 40, Vehicles: 2, Served: 2}},
		{RunID: "r2", Instance: "test_system_2.json", Timestamp: base.Add(time.Minute), Status: "infeasible", Solver: "cbc"},
		{RunID: "r3", Instance: "test_system_1.json", Timestamp: base.Add(2 * time.Minute), Status: "time_limit", Objective: ptr(-3), Solver: "cbc"},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "runs.jsonl"))
	require.NoError(t, err)
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sq, err := NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return map[string]Store{
		"memory":   NewMemoryStore(),
		"jsonl":    jsonl,
		"rotating": rot,
		"sqlite":   sq,
	}
}

func TestStores_AppendQueryGet(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = store.Close() }()
			ctx := context.Background()
			for _, r := range sampleRecords(base) {
				require.NoError(t, store.Append(ctx, r))
			}

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "r1", all[0].RunID)
			require.NotNil(t, all[0].Objective)
			assert.InDelta(t, -12.5, *all[0].Objective, 1e-9)
			assert.Equal(t, 2, all[0].Totals.Served)

			byInst, err := store.Query(ctx, Query{Instance: "test_system_1.json"})
			require.NoError(t, err)
			assert.Len(t, byInst, 2)

			byStatus, err := store.Query(ctx, Query{Status: "infeasible"})
			require.NoError(t, err)
			require.Len(t, byStatus, 1)
			assert.Nil(t, byStatus[0].Objective)

			window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, "r2", window[0].RunID)

			last, err := store.Query(ctx, Query{Limit: 1})
			require.NoError(t, err)
			require.Len(t, last, 1)
			assert.Equal(t, "r3", last[0].RunID)

			got, err := store.Get(ctx, "r3")
			require.NoError(t, err)
			assert.Equal(t, "time_limit", got.Status)

			_, err = store.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Record{RunID: "a"}))
	require.NoError(t, appendRaw(path, "{not json\n"))
	require.NoError(t, store.Append(ctx, Record{RunID: "b"}))

	out, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	// ~4KB per record pushes past the 1MB threshold
	rec := Record{RunID: "x", Error: strings.Repeat("x", 4096)}
	for i := 0; i < 400; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(filepath.Join(dir, "runs*"))
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected records")
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	path := filepath.Join(t.TempDir(), "r.jsonl")
	s, err = NewStore(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": path}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = NewStore(factory.ModuleConfig{Type: "sqlite"})
	assert.Error(t, err)

	_, err = NewStore(factory.ModuleConfig{Type: "nope"})
	assert.Error(t, err)
	assert.Contains(t, StoreTypes(), "rotating")
}
