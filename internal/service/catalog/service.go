// Package catalog manages the content the shop advertises: services with
// prices and durations, the photo gallery and the shop-wide config.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// repository is the slice of store.CatalogRepository this service needs.
type repository interface {
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
	CreateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	ListGallery(ctx context.Context, limit int) ([]domain.GalleryImage, error)
	AddGalleryImage(ctx context.Context, img domain.GalleryImage) (domain.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id uuid.UUID) error
	GetShopConfig(ctx context.Context) (domain.ShopConfig, error)
	UpdateShopConfig(ctx context.Context, cfg domain.ShopConfig) (domain.ShopConfig, error)
}

type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// PublicServices lists the active services, cheapest first.
func (s *Service) PublicServices(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListServices(ctx, true)
}

func (s *Service) AllServices(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListServices(ctx, false)
}

type ServiceInput struct {
	Name            string
	PriceCents      int64
	DurationMinutes int
	DurationDisplay domain.DurationDisplay
	// Active is a pointer so an update can leave the flag untouched. On
	// create, nil means active.
	Active *bool
}

func (in *ServiceInput) validate() (domain.DurationDisplay, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", validationError("name is required")
	}
	if in.PriceCents < 0 {
		return "", validationError("price_cents must not be negative")
	}
	if in.DurationMinutes <= 0 {
		return "", validationError("duration_minutes must be positive")
	}
	display := in.DurationDisplay
	if display == "" {
		display = domain.DurationDisplayFixed
	}
	if !display.Valid() {
		return "", validationError(fmt.Sprintf("unknown duration_display %q", in.DurationDisplay))
	}
	return display, nil
}

func (s *Service) CreateService(ctx context.Context, in ServiceInput) (domain.Service, error) {
	display, err := in.validate()
	if err != nil {
		return domain.Service{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return s.repo.CreateService(ctx, domain.Service{
		Name:            strings.TrimSpace(in.Name),
		PriceCents:      in.PriceCents,
		DurationMinutes: in.DurationMinutes,
		DurationDisplay: display,
		Active:          active,
	})
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (domain.Service, error) {
	if id == uuid.Nil {
		return domain.Service{}, validationError("service_id is required")
	}
	display, err := in.validate()
	if err != nil {
		return domain.Service{}, err
	}

	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return domain.Service{}, err
	}
	svc.Name = strings.TrimSpace(in.Name)
	svc.PriceCents = in.PriceCents
	svc.DurationMinutes = in.DurationMinutes
	svc.DurationDisplay = display
	if in.Active != nil {
		svc.Active = *in.Active
	}
	return s.repo.UpdateService(ctx, svc)
}

// PublicGallery returns the newest photos, capped for the public page.
func (s *Service) PublicGallery(ctx context.Context) ([]domain.GalleryImage, error) {
	return s.repo.ListGallery(ctx, domain.PublicGalleryLimit)
}

func (s *Service) AllGallery(ctx context.Context) ([]domain.GalleryImage, error) {
	return s.repo.ListGallery(ctx, 0)
}

func (s *Service) AddGalleryImage(ctx context.Context, rawURL string) (domain.GalleryImage, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return domain.GalleryImage{}, validationError("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.GalleryImage{}, validationError("url must be absolute http(s)")
	}
	return s.repo.AddGalleryImage(ctx, domain.GalleryImage{URL: rawURL})
}

func (s *Service) DeleteGalleryImage(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("image_id is required")
	}
	return s.repo.DeleteGalleryImage(ctx, id)
}

func (s *Service) ShopConfig(ctx context.Context) (domain.ShopConfig, error) {
	return s.repo.GetShopConfig(ctx)
}

type ShopConfigInput struct {
	AgendaOpen    bool
	OpeningTime   string
	ClosedMessage string
}

func (s *Service) UpdateShopConfig(ctx context.Context, in ShopConfigInput) (domain.ShopConfig, error) {
	opening := strings.TrimSpace(in.OpeningTime)
	if _, _, err := domain.ParseClock(opening); err != nil {
		return domain.ShopConfig{}, validationError("opening_time must be HH:MM")
	}
	return s.repo.UpdateShopConfig(ctx, domain.ShopConfig{
		ID:            domain.ShopConfigID,
		AgendaOpen:    in.AgendaOpen,
		OpeningTime:   opening,
		ClosedMessage: strings.TrimSpace(in.ClosedMessage),
	})
}
