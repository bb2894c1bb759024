package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

// CatalogCache is a read-through Redis cache for the pricing-option catalog.
// Config data only: bookings are correctness-critical and always hit the
// database. Every cache failure falls through to the DB silently.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(addr, password string, db int, ttl time.Duration) *CatalogCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &CatalogCache{client: client, ttl: ttl}
}

// Ping verifies the Redis connection at startup.
func (c *CatalogCache) Ping(ctx context.Context) error {
	if _, err := c.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func (c *CatalogCache) Close() error {
	return c.client.Close()
}

func catalogKey(establishmentID uint) string {
	return fmt.Sprintf("selfkey:catalog:%d", establishmentID)
}

// GetOptions returns the cached catalog and whether it was present.
func (c *CatalogCache) GetOptions(ctx context.Context, establishmentID uint) ([]models.PricingOption, bool) {
	raw, err := c.client.Get(ctx, catalogKey(establishmentID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("catalog cache read failed: %v", err)
		}
		return nil, false
	}
	var options []models.PricingOption
	if err := json.Unmarshal(raw, &options); err != nil {
		log.Printf("catalog cache entry corrupt, dropping: %v", err)
		c.Invalidate(ctx, establishmentID)
		return nil, false
	}
	return options, true
}

// SetOptions stores the catalog with the cache TTL, best-effort.
func (c *CatalogCache) SetOptions(ctx context.Context, establishmentID uint, options []models.PricingOption) {
	raw, err := json.Marshal(options)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, catalogKey(establishmentID), raw, c.ttl).Err(); err != nil {
		log.Printf("catalog cache write failed: %v", err)
	}
}

// Invalidate drops the cached catalog for an establishment.
func (c *CatalogCache) Invalidate(ctx context.Context, establishmentID uint) {
	if err := c.client.Del(ctx, catalogKey(establishmentID)).Err(); err != nil {
		log.Printf("catalog cache invalidate failed: %v", err)
	}
}
