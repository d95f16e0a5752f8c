package store

import (
	"context"

	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
)

type CatalogRepository interface {
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
	CreateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error)

	// ListGallery returns newest-first; limit <= 0 means no limit.
	ListGallery(ctx context.Context, limit int) ([]domain.GalleryImage, error)
	AddGalleryImage(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id uuid.UUID) error

	GetShopConfig(ctx context.Context) (domain.ShopConfig, error)
	UpdateShopConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error)
}
