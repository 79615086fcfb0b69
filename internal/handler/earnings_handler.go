package handler

import (
	"net/http"

	"github.com/edgeandco/service-booking/internal/application"
	"github.com/gin-gonic/gin"
)

// EarningsHandler handles HTTP requests for earnings reports.
type EarningsHandler struct {
	service *application.EarningsService
}

// NewEarningsHandler creates a new EarningsHandler.
func NewEarningsHandler(service *application.EarningsService) *EarningsHandler {
	return &EarningsHandler{service: service}
}

// RegisterRoutes registers the earnings routes. The static weekly/current route
// takes priority over weekly/:date.
func (h *EarningsHandler) RegisterRoutes(r *gin.RouterGroup) {
	earnings := r.Group("/earnings")
	{
		earnings.GET("/daily/:date", h.Daily)
		earnings.GET("/weekly/current", h.CurrentWeek)
		earnings.GET("/weekly/:date", h.Weekly)
		earnings.GET("/range/:start/:end", h.Range)
	}
}

// Daily handles GET /earnings/daily/:date.
func (h *EarningsHandler) Daily(c *gin.Context) {
	date, ok := parseDateParam(c, "date", c.Param("date"))
	if !ok {
		return
	}

	result, err := h.service.DailyEarnings(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Weekly handles GET /earnings/weekly/:date, the date being the first day of the week.
func (h *EarningsHandler) Weekly(c *gin.Context) {
	weekStart, ok := parseDateParam(c, "week_start", c.Param("date"))
	if !ok {
		return
	}

	result, err := h.service.WeeklyEarnings(c.Request.Context(), weekStart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CurrentWeek handles GET /earnings/weekly/current.
func (h *EarningsHandler) CurrentWeek(c *gin.Context) {
	result, err := h.service.CurrentWeekEarnings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Range handles GET /earnings/range/:start/:end.
func (h *EarningsHandler) Range(c *gin.Context) {
	startDate, ok := parseDateParam(c, "start_date", c.Param("start"))
	if !ok {
		return
	}
	endDate, ok := parseDateParam(c, "end_date", c.Param("end"))
	if !ok {
		return
	}

	result, err := h.service.RangeEarnings(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
