package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/runlog"
)

func TestBuildQuery(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		q     runlog.Query
		sql   string
		nargs int
	}{
		{"all", runlog.Query{}, `SELECT record FROM "runs" WHERE TRUE ORDER BY ts, id`, 0},
		{"filters", runlog.Query{Start: start, Instance: "a", Status: "optimal"},
			`SELECT record FROM "runs" WHERE TRUE AND ts >= $1 AND instance = $2 AND status = $3 ORDER BY ts, id`, 3},
		{"limit", runlog.Query{Status: "optimal", Limit: 5},
			`SELECT record FROM (SELECT id, ts, record FROM "runs" WHERE TRUE AND status = $1 ORDER BY ts DESC, id DESC LIMIT $2) recent ORDER BY ts, id`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildQuery(`"runs"`, tt.q)
			assert.Equal(t, tt.sql, sql)
			assert.Len(t, args, tt.nargs)
		})
	}
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), Config{})
	require.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, runlog.StoreTypes(), "postgres")
	_, err := runlog.NewStore(factory.ModuleConfig{Type: "postgres", Conf: map[string]any{"dsn": "::bad::"}})
	assert.Error(t, err)
}
