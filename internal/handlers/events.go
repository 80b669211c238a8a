package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"
)

const errListEvents = "failed to load events"

// Layouts accepted for range bounds, tried in order.
var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// timeRange is the optional [from, to] window of a listing query.
type timeRange struct {
	From time.Time
	To   time.Time
}

// bindTimeRange reads ?from and ?to. A bare date in 'to' covers that whole
// day, so to=2024-03-01 includes events at 23:59.
func bindTimeRange(c *gin.Context) (timeRange, error) {
	var tr timeRange
	if raw := c.Query("from"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return tr, fmt.Errorf("invalid 'from' time; use RFC3339 or YYYY-MM-DD")
		}
		tr.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return tr, fmt.Errorf("invalid 'to' time; use RFC3339 or YYYY-MM-DD")
		}
		if !strings.ContainsAny(raw, "T ") {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		tr.To = t
	}
	return tr, nil
}

// @Summary      List load events
// @Description  Filter events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type and appliance. A date-only 'to' is inclusive to the end of that day.
// @Tags         events
// @Produce      json
// @Param        from       query   string  false  "Start of range"  example(2024-03-01)
// @Param        to         query   string  false  "End of range. Date-only treated as end of day."  example(2024-03-31)
// @Param        type       query   string  false  "Event type"  Enums(LOAD_STARTED,CYCLE_ADVANCED,LOAD_FINISHED,LOAD_COLLECTED,OWNER_ASSIGNED)
// @Param        appliance  query   string  false  "Appliance name"  example(washer)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	window, err := bindTimeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := service.LogFilter{
		From:      window.From,
		To:        window.To,
		Type:      c.Query("type"),
		Appliance: c.Query("appliance"),
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errListEvents, "events_list_failed", err,
			"filter", fmt.Sprintf("%+v", f))
	default:
		c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
	}
}

// parseQueryTime returns s in UTC. Zone-less layouts are read as UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
