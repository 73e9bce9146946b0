package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/report"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "site/a/7/setpoint", Topic("site/a", 7))
	assert.Equal(t, "evsched/1/setpoint", Topic("", 1))
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	m.FailChargers[2] = true
	entries := []report.Entry{
		{VehicleID: 1, ChargerID: 1, Interval: 0, StartHour: 8, PowerKW: 7.4},
		{VehicleID: 2, ChargerID: 2, Interval: 0, StartHour: 8, PowerKW: 11},
	}
	err := m.PublishSchedule(context.Background(), "run", entries)
	require.Error(t, err)
	got := m.Published()
	require.Len(t, got, 1)
	assert.Equal(t, "run", got[0].RunID)
	assert.Equal(t, 7.4, got[0].PowerKW)
	assert.Equal(t, "cmd-run-0", got[0].CommandID)
}
