package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}, ttl: map[string]time.Duration{}} }

func (m *memKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *memKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttl[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *memKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

type stats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
}

func TestJSONCacheRoundTrip(t *testing.T) {
	kv := newMemKV()
	c := NewJSONCache(kv, "directory:")
	ctx := context.Background()

	var got stats
	hit, err := c.GetJSON(ctx, "stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, "stats", stats{Total: 7, Pending: 2}, time.Minute))
	assert.Equal(t, time.Minute, kv.ttl["directory:stats"])

	hit, err = c.GetJSON(ctx, "stats", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stats{Total: 7, Pending: 2}, got)

	require.NoError(t, c.Delete(ctx, "stats"))
	hit, err = c.GetJSON(ctx, "stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestJSONCacheCorruptValue(t *testing.T) {
	kv := newMemKV()
	kv.data["directory:stats"] = "{not json"
	var got stats
	hit, err := NewJSONCache(kv, "directory:").GetJSON(context.Background(), "stats", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}
