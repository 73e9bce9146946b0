//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	corecache "github.com/kilianp07/evsched/core/cache"
	"github.com/kilianp07/evsched/core/lp"
)

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	defer func() { _ = cont.Terminate(ctx) }()

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	c := NewRedisCache(client, time.Minute, "")
	defer func() { _ = c.Close() }()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	obj := 12.5
	require.NoError(t, c.Put(ctx, "k", corecache.Entry{Solver: "cbc", Status: lp.StatusOptimal, Objective: &obj}))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.5, *got.Objective)

	assert.ErrorIs(t, c.Put(ctx, "x", corecache.Entry{Status: lp.StatusTimeLimit}), corecache.ErrNotCacheable)
}
