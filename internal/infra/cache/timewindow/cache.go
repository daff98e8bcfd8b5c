package timewindow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const keyPrefix = "reservation:time_windows"

// Cache кэш списков окон магазина в Redis, ключ на (магазин, день недели)
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache создает кэш окон
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get возвращает окна из кэша. found = false при промахе
// weekday = nil означает все дни недели
func (c *Cache) Get(ctx context.Context, storeID int64, weekday *domain.Weekday) ([]*domain.TimeWindow, bool, error) {
	data, err := c.client.Get(ctx, key(storeID, weekday)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get: %w", ErrCacheRead, err)
	}

	var windows []*domain.TimeWindow
	if err := json.Unmarshal(data, &windows); err != nil {
		return nil, false, fmt.Errorf("%w: Get: %w", ErrCacheDecode, err)
	}
	return windows, true, nil
}

// Set сохраняет окна в кэш
func (c *Cache) Set(ctx context.Context, storeID int64, weekday *domain.Weekday, windows []*domain.TimeWindow) error {
	payload, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("%w: Set - marshal: %w", ErrCacheWrite, err)
	}
	if err := c.client.Set(ctx, key(storeID, weekday), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: Set: %w", ErrCacheWrite, err)
	}
	return nil
}

// Invalidate удаляет все ключи магазина (по каждому дню и общий)
func (c *Cache) Invalidate(ctx context.Context, storeID int64) error {
	keys := make([]string, 0, 8)
	keys = append(keys, key(storeID, nil))
	for wd := domain.Monday; wd <= domain.Sunday; wd++ {
		keys = append(keys, key(storeID, &wd))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: Invalidate: %w", ErrCacheWrite, err)
	}
	return nil
}

func key(storeID int64, weekday *domain.Weekday) string {
	if weekday == nil {
		return fmt.Sprintf("%s:store:%d:all", keyPrefix, storeID)
	}
	return fmt.Sprintf("%s:store:%d:day:%d", keyPrefix, storeID, int(*weekday))
}
