package tickets

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_CreateGetDelete(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepository(client, "test:ticket:")

	ctx := context.Background()
	tk := &Ticket{
		Token:      "t1",
		DocumentID: "doc-1",
		Sub:        "sub-1",
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  time.Now().UTC().Add(5 * time.Minute),
	}

	require.NoError(t, repo.Create(ctx, tk))

	got, err := repo.GetByToken(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "doc-1", got.DocumentID)
	require.Equal(t, "sub-1", got.Sub)

	require.NoError(t, repo.DeleteByToken(ctx, "t1"))
	got2, err := repo.GetByToken(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepository(client, "test:ticket:")

	ctx := context.Background()
	tk := &Ticket{
		Token:      "t2",
		DocumentID: "doc-1",
		Sub:        "sub-2",
		ExpiresAt:  time.Now().UTC().Add(1 * time.Second),
	}

	require.NoError(t, repo.Create(ctx, tk))

	got, err := repo.GetByToken(ctx, "t2")
	require.NoError(t, err)
	require.NotNil(t, got)

	// advance miniredis clock past TTL
	m.FastForward(2 * time.Second)

	got2, err := repo.GetByToken(ctx, "t2")
	require.NoError(t, err)
	require.Nil(t, got2)
}
