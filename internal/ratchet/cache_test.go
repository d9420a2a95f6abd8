package ratchet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheStoreConsume(t *testing.T) {
	c := NewCache(10, 5, time.Hour, nil)
	mk := MessageKeys{}
	c.Store("step-a", 1, mk)
	require.True(t, c.Has("step-a", 1))

	got, ok := c.Consume("step-a", 1)
	require.True(t, ok)
	require.Equal(t, mk, got)
	require.False(t, c.Has("step-a", 1))

	_, ok = c.Consume("step-a", 1)
	require.False(t, ok, "consume is single-use")
}

func TestCacheGlobalEviction(t *testing.T) {
	clock := time.Unix(0, 0)
	c := NewCache(3, 100, time.Hour, func() time.Time { return clock })

	c.Store("step-a", 1, MessageKeys{})
	clock = clock.Add(time.Second)
	c.Store("step-a", 2, MessageKeys{})
	clock = clock.Add(time.Second)
	c.Store("step-a", 3, MessageKeys{})
	require.Equal(t, 3, c.Len())

	clock = clock.Add(time.Second)
	c.Store("step-a", 4, MessageKeys{})
	require.Equal(t, 3, c.Len(), "global cap must not be exceeded")
	require.False(t, c.Has("step-a", 1), "oldest entry should have been evicted")
	require.True(t, c.Has("step-a", 4))
}

func TestCachePerStepEviction(t *testing.T) {
	c := NewCache(100, 2, time.Hour, nil)
	c.Store("step-a", 1, MessageKeys{})
	c.Store("step-a", 2, MessageKeys{})
	c.Store("step-a", 3, MessageKeys{})

	require.False(t, c.Has("step-a", 1), "smallest counter for the step should be evicted first")
	require.True(t, c.Has("step-a", 2))
	require.True(t, c.Has("step-a", 3))
}

func TestCacheExpiry(t *testing.T) {
	clock := time.Unix(0, 0)
	c := NewCache(100, 100, time.Minute, func() time.Time { return clock })
	c.Store("step-a", 1, MessageKeys{})

	clock = clock.Add(2 * time.Minute)
	c.PurgeExpired(clock)
	require.False(t, c.Has("step-a", 1))
}

func TestCachePurgeForStep(t *testing.T) {
	c := NewCache(100, 100, time.Hour, nil)
	c.Store("step-a", 1, MessageKeys{})
	c.Store("step-b", 1, MessageKeys{})

	c.PurgeForStep("step-a")
	require.False(t, c.Has("step-a", 1))
	require.True(t, c.Has("step-b", 1))
}
