package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/store"
)

type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ store.CatalogRepository = (*CatalogRepo)(nil)

func (r *CatalogRepo) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	var rows []domain.Service
	q := r.db.NewSelect().
		Model(&rows).
		OrderExpr("price_cents ASC, name ASC")
	if activeOnly {
		q = q.Where("active")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var m domain.Service
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return m, nil
}

func (r *CatalogRepo) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	_, err := r.db.NewInsert().Model(&svc).Exec(ctx)
	if err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *CatalogRepo) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	res, err := r.db.NewUpdate().
		Model(&svc).
		Column("name", "price_cents", "duration_minutes", "duration_display", "active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Service{}, err
	}
	if err := requireRows(res); err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *CatalogRepo) ListGallery(ctx context.Context, limit int) ([]domain.GalleryImage, error) {
	var rows []domain.GalleryImage
	q := r.db.NewSelect().
		Model(&rows).
		OrderExpr("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) AddGalleryImage(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error) {
	_, err := r.db.NewInsert().Model(&img).Exec(ctx)
	if err != nil {
		return domain.GalleryImage{}, err
	}
	return img, nil
}

func (r *CatalogRepo) DeleteGalleryImage(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.GalleryImage)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *CatalogRepo) GetShopConfig(ctx context.Context) (domain.ShopConfig, error) {
	var m domain.ShopConfig
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", domain.ShopConfigID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ShopConfig{}, store.ErrNotFound
		}
		return domain.ShopConfig{}, err
	}
	return m, nil
}

func (r *CatalogRepo) UpdateShopConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error) {
	cfg.ID = domain.ShopConfigID
	res, err := r.db.NewUpdate().
		Model(&cfg).
		Column("agenda_open", "opening_time", "closed_message", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	if err := requireRows(res); err != nil {
		return domain.ShopConfig{}, err
	}
	return cfg, nil
}

func requireRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
