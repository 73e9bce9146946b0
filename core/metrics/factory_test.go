package metrics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evsched/core/factory"
	metrics "github.com/kilianp07/evsched/core/metrics"
	inframetrics "github.com/kilianp07/evsched/infra/metrics"
)

func TestSinkTypesIncludeBuiltins(t *testing.T) {
	assert.Subset(t, metrics.SinkTypes(), []string{"influx", "nop", "prometheus"})
}

func TestNewMetricsSink_Defaults(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &inframetrics.PromSink{}, s)

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "statsd"}})
	assert.Error(t, err)
}

// The influx sink is decoded from the nested conf map of a YAML document.
func TestNewMetricsSink_FromYAML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	data := `sinks:
  - type: nop
  - type: influx
    conf:
      url: ` + srv.URL + `
      token: t
      org: evsched
      bucket: runs
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	multi, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	require.Len(t, multi.Sinks, 2)
	assert.IsType(t, metrics.NopSink{}, multi.Sinks[0])
	assert.NoError(t, s.RecordSolve(metrics.SolveEvent{Instance: "test_system_1.json", Solver: "cbc", Status: "optimal"}))
}

func TestNewMetricsSink_JSONUnknownType(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"nop"},{"type":"graphite"}]}`), &cfg))
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	assert.ErrorContains(t, err, "graphite")
}

func TestSolveEventSatisfaction(t *testing.T) {
	assert.Equal(t, 0.0, metrics.SolveEvent{}.Satisfaction())
	assert.Equal(t, 75.0, metrics.SolveEvent{Delivered: 30, Required: 40}.Satisfaction())
}
