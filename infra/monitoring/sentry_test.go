package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/config"
	coremon "github.com/kilianp07/evsched/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitorCapturesTags(t *testing.T) {
	var mu sync.Mutex
	var got []*sentry.Event
	capture := func(o *sentry.ClientOptions) {
		o.BeforeSend = func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
			return nil
		}
	}
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://key@127.0.0.1/1", Environment: "test"}, capture)
	require.NoError(t, err)

	m.CaptureException(errors.New("solve failed"), map[string]string{"instance": "test_system_4.json"})
	m.CapturePanic("index out of range", nil)
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "test_system_4.json", got[0].Tags["instance"])
	assert.Equal(t, "test", got[0].Environment)
	assert.Equal(t, sentry.LevelFatal, got[1].Level)
}
