package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"barbearia/backend/internal/service/booking"
	"barbearia/backend/internal/service/catalog"
	"barbearia/backend/internal/store"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

// writeErrorFor maps service errors on write paths. Unknown errors become a
// plain 500.
func (s *Server) writeErrorFor(c *gin.Context, op string, err error) {
	if s.mapKnownError(c, op, err) {
		return
	}
	s.log.Error(op+" failed", "err", err)
	writeError(c, http.StatusInternalServerError, "internal", "internal error")
}

// readError is writeErrorFor for read paths, where an unreachable store must
// be distinguishable from a legitimately empty answer. Unknown errors map to
// 503 so the storefront can show "try again" instead of an empty page.
func (s *Server) readError(c *gin.Context, op string, err error) {
	if s.mapKnownError(c, op, err) {
		return
	}
	s.log.Error(op+" failed", "err", err)
	writeError(c, http.StatusServiceUnavailable, "store_unavailable", "service temporarily unavailable")
}

func (s *Server) mapKnownError(c *gin.Context, op string, err error) bool {
	var bookingErr *booking.ValidationError
	var catalogErr *catalog.ValidationError
	var closedErr *booking.ShopClosedError

	switch {
	case errors.As(err, &bookingErr):
		writeError(c, http.StatusBadRequest, "invalid_argument", bookingErr.Error())
	case errors.As(err, &catalogErr):
		writeError(c, http.StatusBadRequest, "invalid_argument", catalogErr.Error())
	case errors.As(err, &closedErr):
		writeError(c, http.StatusConflict, "shop_closed", closedErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, store.ErrConflict):
		s.log.Info(op+" slot conflict", "err", err)
		writeError(c, http.StatusConflict, "slot_conflict", "that time was just taken, pick another slot")
	case errors.Is(err, store.ErrIdempotencyConflict):
		writeError(c, http.StatusConflict, "idempotency_conflict", "this request key was already used for a different booking")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "invalid_transition", "appointment cannot move to that status")
	default:
		return false
	}
	return true
}
