package history_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-classroom/livepoll/internal/history"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := history.NewRedisStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, endedPoll("p1", "first")))
	require.NoError(t, store.Save(ctx, endedPoll("p2", "second")))

	n, err := client.LLen(ctx, history.DefaultRedisKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Question)
	assert.Equal(t, "p2", list[1].ID)
	assert.Equal(t, 2, list[0].Results[0].Count)
	require.NotNil(t, list[0].EndedAt)
}

func TestRedisStoreReportsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := history.NewRedisStore(client, "k").Save(context.Background(), endedPoll("p1", "q"))
	assert.Error(t, err)
}
