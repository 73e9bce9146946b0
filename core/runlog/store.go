// Package runlog persists one record per optimization run and answers
// queries over them.
package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/evsched/core/report"
)

// ErrNotFound is returned by Get when no record carries the run id.
var ErrNotFound = errors.New("run record not found")

// Record captures one solved instance.
type Record struct {
	RunID      string        `json:"run_id"`
	Instance   string        `json:"instance"`
	Timestamp  time.Time     `json:"timestamp"`
	Status     string        `json:"status"`
	Objective  *float64      `json:"objective,omitempty"`
	DurationMS int64         `json:"duration_ms"`
	Solver     string        `json:"solver"`
	Cached     bool          `json:"cached,omitempty"`
	Error      string        `json:"error,omitempty"`
	Totals     report.Totals `json:"totals"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start    time.Time
	End      time.Time
	Instance string
	Status   string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Instance != "" && r.Instance != q.Instance {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, runID string) (Record, error)
	Close() error
}

// limit trims recs, assumed in append order, to the last n entries.
func limit(recs []Record, n int) []Record {
	if n <= 0 || len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

// find returns the last record with the given run id.
func find(recs []Record, runID string) (Record, error) {
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].RunID == runID {
			return recs[i], nil
		}
	}
	return Record{}, ErrNotFound
}
