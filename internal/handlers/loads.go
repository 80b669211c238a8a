package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"laundrybot/internal/models"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errLimitInvalid = "invalid 'limit'; use a non-negative integer"
	errListLoads    = "failed to load history"
)

// @Summary      List loads
// @Description  Loads newest first. limit defaults to 50 and is capped at 500.
// @Tags         loads
// @Produce      json
// @Param        appliance  query  string  false  "Appliance name"  example(washer)
// @Param        limit      query  int     false  "Maximum number of loads"  example(20)
// @Success      200  {object}  map[string]interface{}  "count, loads"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/loads [get]
func (h *Handler) getLoads(c *gin.Context) {
	f := service.HistoryFilter{Appliance: c.Query("appliance")}
	if qs := c.Query("limit"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitInvalid})
			return
		}
		f.Limit = n
	}

	loads, err := h.services.History.ListLoads(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errListLoads, "loads_list_failed", err,
			"appliance", f.Appliance, "limit", f.Limit)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(loads),
		"loads": loads,
	})
}
