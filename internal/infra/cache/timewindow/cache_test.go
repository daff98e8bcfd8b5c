package timewindow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	friday := domain.Friday

	windows := []*domain.TimeWindow{{
		ID:           1,
		StoreID:      7,
		DayOfWeek:    domain.Friday,
		StartTime:    types.MustTimeString("18:00"),
		EndTime:      ptr.Ptr(types.MustTimeString("20:00")),
		MaxAggregate: 20,
		MaxParty:     8,
		IsActive:     true,
	}}

	_, found, err := c.Get(ctx, 7, &friday)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, 7, &friday, windows))

	got, found, err := c.Get(ctx, 7, &friday)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "18:00-20:00", got[0].Label())
	assert.Equal(t, 20, got[0].MaxAggregate)
	assert.Equal(t, domain.Friday, got[0].DayOfWeek)
}

func TestCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 7, nil, []*domain.TimeWindow{}))
	mr.FastForward(2 * time.Minute)

	_, found, err := c.Get(ctx, 7, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_InvalidateRemovesAllStoreKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	monday, friday := domain.Monday, domain.Friday

	require.NoError(t, c.Set(ctx, 7, nil, []*domain.TimeWindow{}))
	require.NoError(t, c.Set(ctx, 7, &monday, []*domain.TimeWindow{}))
	require.NoError(t, c.Set(ctx, 7, &friday, []*domain.TimeWindow{}))
	require.NoError(t, c.Set(ctx, 8, &friday, []*domain.TimeWindow{}))

	require.NoError(t, c.Invalidate(ctx, 7))

	for _, wd := range []*domain.Weekday{nil, &monday, &friday} {
		_, found, err := c.Get(ctx, 7, wd)
		require.NoError(t, err)
		assert.False(t, found)
	}

	_, found, err := c.Get(ctx, 8, &friday)
	require.NoError(t, err)
	assert.True(t, found, "other stores must stay cached")
}

func TestCache_CorruptedValue(t *testing.T) {
	c, mr := newTestCache(t)
	friday := domain.Friday
	require.NoError(t, mr.Set(key(7, &friday), "{not json"))

	_, _, err := c.Get(context.Background(), 7, &friday)
	assert.ErrorIs(t, err, ErrCacheDecode)
}
