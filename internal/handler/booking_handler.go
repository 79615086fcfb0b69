package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edgeandco/service-booking/internal/application"
	bookingDomain "github.com/edgeandco/service-booking/internal/domain/booking"
	"github.com/gin-gonic/gin"
)

const (
	defaultSkip  = 0
	defaultLimit = 100
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// writeMW guards the mutating routes.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, writeMW gin.HandlerFunc) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/", h.ListBookings)
		bookings.POST("", writeMW, h.CreateBooking)
		bookings.POST("/", writeMW, h.CreateBooking)
		bookings.GET("/date/:date", h.ListForDate)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", writeMW, h.UpdateBooking)
		bookings.DELETE("/:id", writeMW, h.DeleteBooking)
	}
}

// ListBookings handles GET /bookings/. A client filter wins over a date range,
// which wins over status and pagination.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	ctx := c.Request.Context()

	if client := c.Query("client"); client != "" {
		result, err := h.service.ListByClient(ctx, client)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	startRaw, endRaw := c.Query("start_date"), c.Query("end_date")
	if startRaw != "" || endRaw != "" {
		startDate, ok := parseDateParam(c, "start_date", startRaw)
		if !ok {
			return
		}
		endDate, ok := parseDateParam(c, "end_date", endRaw)
		if !ok {
			return
		}
		if startRaw != "" && endRaw != "" {
			result, err := h.service.ListByDateRange(ctx, startDate, endDate)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}
	}

	skip, ok := parseIntQuery(c, "skip", defaultSkip)
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", defaultLimit)
	if !ok {
		return
	}

	result, err := h.service.ListBookings(ctx, c.Query("status"), skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateBooking handles POST /bookings/.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondUnprocessable(c, bindingDetail(err))
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateBooking handles PUT /bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondUnprocessable(c, bindingDetail(err))
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteBooking handles DELETE /bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully"})
}

// ListForDate handles GET /bookings/date/:date.
func (h *BookingHandler) ListForDate(c *gin.Context) {
	date, ok := parseDateParam(c, "date", c.Param("date"))
	if !ok {
		return
	}

	result, err := h.service.ListForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Helpers ---

func parseBookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondUnprocessable(c, "booking id must be an integer")
		return 0, false
	}
	return id, true
}

// parseIntQuery reads a non-negative integer query value, falling back to def when absent.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondUnprocessable(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// parseDateParam parses a YYYY-MM-DD value; an empty value is accepted as the zero time.
func parseDateParam(c *gin.Context, name, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := bookingDomain.ParseDate(raw)
	if err != nil {
		respondUnprocessable(c, name+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}
