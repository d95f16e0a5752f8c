package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/service/booking"
	"barbearia/backend/internal/service/catalog"
)

type serviceResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	DurationDisplay string `json:"duration_display"`
	// DurationLabel is absent for range_text services: their name already
	// spells the duration out.
	DurationLabel string `json:"duration_label,omitempty"`
	Active        bool   `json:"active"`
}

func toServiceResponse(svc domain.Service) serviceResponse {
	out := serviceResponse{
		ID:              svc.ID.String(),
		Name:            svc.Name,
		PriceCents:      svc.PriceCents,
		DurationMinutes: svc.DurationMinutes,
		DurationDisplay: string(svc.DurationDisplay),
		Active:          svc.Active,
	}
	if svc.DurationDisplay == domain.DurationDisplayFixed {
		out.DurationLabel = formatDuration(svc.DurationMinutes)
	}
	return out
}

// formatDuration renders minutes the way the storefront shows them:
// "30min", "1h", "1h 30min".
func formatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dmin", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dmin", h, m)
	}
}

type appointmentResponse struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) toAppointmentResponse(appt domain.Appointment) appointmentResponse {
	start := appt.StartTime.In(s.loc)
	out := appointmentResponse{
		ID:          appt.ID.String(),
		ClientName:  appt.ClientName,
		ClientPhone: appt.ClientPhone,
		ServiceID:   appt.ServiceID.String(),
		Date:        start.Format("2006-01-02"),
		Time:        start.Format("15:04"),
		EndTime:     appt.EndTime.In(s.loc).Format("15:04"),
		Status:      string(appt.Status),
		CreatedAt:   appt.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if appt.Service != nil {
		out.ServiceName = appt.Service.Name
	}
	return out
}

type galleryImageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

func toGalleryResponse(imgs []domain.GalleryImage) []galleryImageResponse {
	out := make([]galleryImageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, galleryImageResponse{
			ID:        img.ID.String(),
			URL:       img.URL,
			CreatedAt: img.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}

type shopConfigResponse struct {
	AgendaOpen    bool   `json:"agenda_open"`
	OpeningTime   string `json:"opening_time"`
	ClosedMessage string `json:"closed_message,omitempty"`
}

func (s *Server) listPublicServices(c *gin.Context) {
	services, err := s.catalog.PublicServices(c.Request.Context())
	if err != nil {
		s.readError(c, "list services", err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(svc))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

func (s *Server) listPublicGallery(c *gin.Context) {
	imgs, err := s.catalog.PublicGallery(c.Request.Context())
	if err != nil {
		s.readError(c, "list gallery", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": toGalleryResponse(imgs)})
}

func (s *Server) getPublicShop(c *gin.Context) {
	cfg, err := s.catalog.ShopConfig(c.Request.Context())
	if err != nil {
		s.readError(c, "get shop config", err)
		return
	}
	c.JSON(http.StatusOK, shopConfigResponse{
		AgendaOpen:    cfg.AgendaOpen,
		OpeningTime:   cfg.OpeningTime,
		ClosedMessage: cfg.ClosedMessage,
	})
}

func (s *Server) getAvailability(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "service_id must be a UUID")
		return
	}
	res, err := s.booking.Availability(c.Request.Context(), c.Query("date"), serviceID)
	if err != nil {
		s.readError(c, "availability", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":       res.Date,
		"service_id": res.ServiceID.String(),
		"slots":      res.Slots,
	})
}

type createAppointmentRequest struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ServiceID   string `json:"service_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

func (s *Server) createAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "service_id must be a UUID")
		return
	}

	appt, err := s.booking.Book(c.Request.Context(), booking.BookInput{
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		ServiceID:      serviceID,
		Date:           req.Date,
		Time:           req.Time,
		IdempotencyKey: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	})
	if err != nil {
		s.writeErrorFor(c, "book", err)
		return
	}

	s.log.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"service_id", appt.ServiceID.String(),
		"start_time", appt.StartTime,
	)
	c.JSON(http.StatusCreated, s.toAppointmentResponse(appt))
}

func (s *Server) listAgenda(c *gin.Context) {
	var (
		appts []domain.Appointment
		err   error
	)
	if date := c.Query("date"); date != "" {
		appts, err = s.booking.AgendaForDay(c.Request.Context(), date)
	} else {
		appts, err = s.booking.AgendaAll(c.Request.Context())
	}
	if err != nil {
		s.readError(c, "list agenda", err)
		return
	}
	out := make([]appointmentResponse, 0, len(appts))
	for _, appt := range appts {
		out = append(out, s.toAppointmentResponse(appt))
	}
	c.JSON(http.StatusOK, gin.H{"appointments": out})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateAppointmentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "appointment id must be a UUID")
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	appt, err := s.booking.UpdateStatus(c.Request.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		s.writeErrorFor(c, "update status", err)
		return
	}

	s.log.Info("appointment status updated",
		"appointment_id", appt.ID.String(),
		"status", string(appt.Status),
	)
	c.JSON(http.StatusOK, s.toAppointmentResponse(appt))
}

func (s *Server) listAllServices(c *gin.Context) {
	services, err := s.catalog.AllServices(c.Request.Context())
	if err != nil {
		s.readError(c, "list services", err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(svc))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

type serviceRequest struct {
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	DurationDisplay string `json:"duration_display"`
	Active          *bool  `json:"active"`
}

func (r serviceRequest) toInput() catalog.ServiceInput {
	return catalog.ServiceInput{
		Name:            r.Name,
		PriceCents:      r.PriceCents,
		DurationMinutes: r.DurationMinutes,
		DurationDisplay: domain.DurationDisplay(r.DurationDisplay),
		Active:          r.Active,
	}
}

func (s *Server) createService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}
	svc, err := s.catalog.CreateService(c.Request.Context(), req.toInput())
	if err != nil {
		s.writeErrorFor(c, "create service", err)
		return
	}
	c.JSON(http.StatusCreated, toServiceResponse(svc))
}

func (s *Server) updateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "service id must be a UUID")
		return
	}
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}
	svc, err := s.catalog.UpdateService(c.Request.Context(), id, req.toInput())
	if err != nil {
		s.writeErrorFor(c, "update service", err)
		return
	}
	c.JSON(http.StatusOK, toServiceResponse(svc))
}

func (s *Server) listAllGallery(c *gin.Context) {
	imgs, err := s.catalog.AllGallery(c.Request.Context())
	if err != nil {
		s.readError(c, "list gallery", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": toGalleryResponse(imgs)})
}

type addGalleryImageRequest struct {
	URL string `json:"url"`
}

func (s *Server) addGalleryImage(c *gin.Context) {
	var req addGalleryImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}
	img, err := s.catalog.AddGalleryImage(c.Request.Context(), req.URL)
	if err != nil {
		s.writeErrorFor(c, "add gallery image", err)
		return
	}
	c.JSON(http.StatusCreated, galleryImageResponse{
		ID:        img.ID.String(),
		URL:       img.URL,
		CreatedAt: img.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (s *Server) deleteGalleryImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "image id must be a UUID")
		return
	}
	if err := s.catalog.DeleteGalleryImage(c.Request.Context(), id); err != nil {
		s.writeErrorFor(c, "delete gallery image", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getShopConfig(c *gin.Context) {
	cfg, err := s.catalog.ShopConfig(c.Request.Context())
	if err != nil {
		s.readError(c, "get shop config", err)
		return
	}
	c.JSON(http.StatusOK, shopConfigResponse{
		AgendaOpen:    cfg.AgendaOpen,
		OpeningTime:   cfg.OpeningTime,
		ClosedMessage: cfg.ClosedMessage,
	})
}

type shopConfigRequest struct {
	AgendaOpen    bool   `json:"agenda_open"`
	OpeningTime   string `json:"opening_time"`
	ClosedMessage string `json:"closed_message"`
}

func (s *Server) updateShopConfig(c *gin.Context) {
	var req shopConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}
	cfg, err := s.catalog.UpdateShopConfig(c.Request.Context(), catalog.ShopConfigInput{
		AgendaOpen:    req.AgendaOpen,
		OpeningTime:   req.OpeningTime,
		ClosedMessage: req.ClosedMessage,
	})
	if err != nil {
		s.writeErrorFor(c, "update shop config", err)
		return
	}
	c.JSON(http.StatusOK, shopConfigResponse{
		AgendaOpen:    cfg.AgendaOpen,
		OpeningTime:   cfg.OpeningTime,
		ClosedMessage: cfg.ClosedMessage,
	})
}
