// Package rediscache decorates the catalog repository with a read-through
// redis cache. The public page hits services, gallery and shop config on
// every load; those rows change only when the admin saves something, so the
// cache is invalidated on writes and otherwise trusted for a short TTL.
//
// Redis failures are never surfaced: reads fall through to postgres and
// invalidation is best effort, so a cache outage degrades to slower reads,
// not wrong answers.
package rediscache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/store"
)

const (
	keyServicesActive = "catalog:services:active"
	keyServicesAll    = "catalog:services:all"
	keyGalleryPrefix  = "catalog:gallery:"
	keyShopConfig     = "catalog:shop"
)

type CatalogCache struct {
	next store.CatalogRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

var _ store.CatalogRepository = (*CatalogCache)(nil)

func NewCatalogCache(next store.CatalogRepository, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogCache{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With(slog.String("component", "rediscache.catalog")),
	}
}

func (c *CatalogCache) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	key := keyServicesAll
	if activeOnly {
		key = keyServicesActive
	}
	var cached []domain.Service
	if c.getJSON(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := c.next.ListServices(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, rows)
	return rows, nil
}

// GetService is not cached: it sits on the booking path, where a stale
// duration would feed wrong interval math into the conflict check.
func (c *CatalogCache) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	return c.next.GetService(ctx, id)
}

func (c *CatalogCache) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	out, err := c.next.CreateService(ctx, svc)
	if err != nil {
		return domain.Service{}, err
	}
	c.invalidate(ctx)
	return out, nil
}

func (c *CatalogCache) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	out, err := c.next.UpdateService(ctx, svc)
	if err != nil {
		return domain.Service{}, err
	}
	c.invalidate(ctx)
	return out, nil
}

func (c *CatalogCache) ListGallery(ctx context.Context, limit int) ([]domain.GalleryImage, error) {
	key := galleryKey(limit)
	var cached []domain.GalleryImage
	if c.getJSON(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := c.next.ListGallery(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, rows)
	return rows, nil
}

func (c *CatalogCache) AddGalleryImage(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error) {
	out, err := c.next.AddGalleryImage(ctx, img)
	if err != nil {
		return domain.GalleryImage{}, err
	}
	c.invalidate(ctx)
	return out, nil
}

func (c *CatalogCache) DeleteGalleryImage(ctx context.Context, id uuid.UUID) error {
	if err := c.next.DeleteGalleryImage(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CatalogCache) GetShopConfig(ctx context.Context) (domain.ShopConfig, error) {
	var cached domain.ShopConfig
	if c.getJSON(ctx, keyShopConfig, &cached) {
		return cached, nil
	}
	cfg, err := c.next.GetShopConfig(ctx)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	c.setJSON(ctx, keyShopConfig, cfg)
	return cfg, nil
}

func (c *CatalogCache) UpdateShopConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	out, err := c.next.UpdateShopConfig(ctx, cfg)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	c.invalidate(ctx)
	return out, nil
}

func galleryKey(limit int) string {
	if limit <= 0 {
		return keyGalleryPrefix + "all"
	}
	return keyGalleryPrefix + strconv.Itoa(limit)
}

func (c *CatalogCache) getJSON(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", slog.String("key", key), slog.Any("err", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache entry corrupt", slog.String("key", key), slog.Any("err", err))
		return false
	}
	return true
}

func (c *CatalogCache) setJSON(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache marshal failed", slog.String("key", key), slog.Any("err", err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", slog.String("key", key), slog.Any("err", err))
	}
}

func (c *CatalogCache) invalidate(ctx context.Context) {
	keys := []string{
		keyServicesActive,
		keyServicesAll,
		keyShopConfig,
		galleryKey(0),
		galleryKey(domain.PublicGalleryLimit),
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", slog.Any("err", err))
	}
}
