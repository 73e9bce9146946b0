package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/evsched/core/events"
)

type recordSink struct {
	solves int
	runs   int
	err    error
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.solves++
	return r.err
}

func (r *recordSink) RecordRunEvent(events.RunEvent) error {
	r.runs++
	return nil
}

type solveOnly struct{ n int }

func (s *solveOnly) RecordSolve(SolveEvent) error { s.n++; return nil }

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{err: errors.New("down")}
	s3 := &solveOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordSolve(SolveEvent{}); err == nil {
		t.Fatalf("expected joined error")
	}
	if err := m.RecordRunEvent(events.RunEvent{Kind: events.RunStarted}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if s1.solves != 1 || s2.solves != 1 || s3.n != 1 {
		t.Fatalf("solve not forwarded to every sink")
	}
	if s1.runs != 1 || s2.runs != 1 {
		t.Fatalf("run events not forwarded")
	}
}

func TestSolveEventSatisfaction(t *testing.T) {
	if got := (SolveEvent{Delivered: 5, Required: 20}).Satisfaction(); got != 25 {
		t.Fatalf("expected 25 got %v", got)
	}
	if got := (SolveEvent{Delivered: 5}).Satisfaction(); got != 0 {
		t.Fatalf("expected 0 got %v", got)
	}
}
