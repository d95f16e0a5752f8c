// Package http exposes the booking and catalog services over a JSON API.
// Public routes serve the storefront; /admin routes back the management UI
// and are expected to sit behind the deployment's auth proxy.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/service/booking"
	"barbearia/backend/internal/service/catalog"
)

type bookingService interface {
	Availability(ctx context.Context, date string, serviceID uuid.UUID) (booking.AvailabilityResult, error)
	Book(ctx context.Context, in booking.BookInput) (domain.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
	AgendaForDay(ctx context.Context, date string) ([]domain.Appointment, error)
	AgendaAll(ctx context.Context) ([]domain.Appointment, error)
}

type catalogService interface {
	PublicServices(ctx context.Context) ([]domain.Service, error)
	AllServices(ctx context.Context) ([]domain.Service, error)
	CreateService(ctx context.Context, in catalog.ServiceInput) (domain.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, in catalog.ServiceInput) (domain.Service, error)
	PublicGallery(ctx context.Context) ([]domain.GalleryImage, error)
	AllGallery(ctx context.Context) ([]domain.GalleryImage, error)
	AddGalleryImage(ctx context.Context, url string) (domain.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id uuid.UUID) error
	ShopConfig(ctx context.Context) (domain.ShopConfig, error)
	UpdateShopConfig(ctx context.Context, in catalog.ShopConfigInput) (domain.ShopConfig, error)
}

type Server struct {
	booking bookingService
	catalog catalogService
	loc     *time.Location
	log     *slog.Logger

	requestTimeout time.Duration
	allowedOrigins []string
	bookLimiter    gin.HandlerFunc
}

type ServerOption func(*Server)

func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.requestTimeout = d }
}

func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithBookLimiter installs a rate limiting middleware on the public booking
// endpoint.
func WithBookLimiter(mw gin.HandlerFunc) ServerOption {
	return func(s *Server) { s.bookLimiter = mw }
}

func NewServer(b bookingService, c catalogService, loc *time.Location, log *slog.Logger, opts ...ServerOption) *Server {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		booking:        b,
		catalog:        c,
		loc:            loc,
		log:            log.With(slog.String("component", "http")),
		requestTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.timeoutMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) > 0 {
		corsCfg.AllowOrigins = s.allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Idempotency-Key"}
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/services", s.listPublicServices)
		api.GET("/gallery", s.listPublicGallery)
		api.GET("/shop", s.getPublicShop)
		api.GET("/availability", s.getAvailability)

		book := api.Group("")
		if s.bookLimiter != nil {
			book.Use(s.bookLimiter)
		}
		book.POST("/appointments", s.createAppointment)
	}

	admin := r.Group("/admin")
	{
		admin.GET("/appointments", s.listAgenda)
		admin.POST("/appointments", s.createAppointment)
		admin.PATCH("/appointments/:id/status", s.updateAppointmentStatus)

		admin.GET("/services", s.listAllServices)
		admin.POST("/services", s.createService)
		admin.PUT("/services/:id", s.updateService)

		admin.GET("/gallery", s.listAllGallery)
		admin.POST("/gallery", s.addGalleryImage)
		admin.DELETE("/gallery/:id", s.deleteGalleryImage)

		admin.GET("/shop", s.getShopConfig)
		admin.PUT("/shop", s.updateShopConfig)
	}

	return r
}

// timeoutMiddleware caps each request's context. Handlers pass the context
// down to the store, so a stuck query surfaces as a canceled request rather
// than a hung connection.
func (s *Server) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.requestTimeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
