package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errSubmitReadings  = "failed to record readings"
	errPushButton      = "failed to apply button press"
	errGetSnapshot     = "failed to load snapshot"
	errConsistency     = "request refused: ledger invariant would be broken"
	errInvalidBodyPref = "invalid body: "

	textContentType = "text/plain; charset=utf-8"
)

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// ReadingsRequest is the JSON body of POST /api/v1/readings, keyed by appliance name.
type ReadingsRequest map[string]float64

// ButtonRequest is the JSON body of POST /api/v1/button.
type ButtonRequest struct {
	// Name of a known household member
	Name string `json:"name" example:"Sam"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// writeFailure maps a service error onto a response. Validation problems are
// reported with validationCode so device routes can keep answering 200.
func (h *Handler) writeFailure(c *gin.Context, validationCode int, userMsg, logKey string, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(validationCode, verrs)
	case errors.Is(err, models.ErrValidation):
		c.JSON(validationCode, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConsistency):
		h.logAndJSONError(c, http.StatusConflict, errConsistency, logKey, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err)
	}
}

func writeText(c *gin.Context, snap models.Snapshot) {
	c.Data(http.StatusOK, textContentType, []byte(service.FormatText(snap)))
}

func formatAmps(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// formValues returns the first value of every submitted field.
func formValues(c *gin.Context) map[string]string {
	_ = c.Request.ParseForm()
	out := make(map[string]string, len(c.Request.Form))
	for k, vv := range c.Request.Form {
		if len(vv) > 0 {
			out[k] = vv[0]
		}
	}
	return out
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Submit power readings
// @Description  One form field per appliance (washer, dryer). Invalid input answers 200 with a per-field error map and changes nothing.
// @Tags         device
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Param        washer  formData  string  true  "Washer current in amps"  example(10.0)
// @Param        dryer   formData  string  true  "Dryer current in amps"   example(2.0)
// @Success      200  {string}  string  "key=json snapshot lines"
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/update [post]
func (h *Handler) submitReadings(c *gin.Context) {
	snap, err := h.services.Readings.SubmitReadings(c.Request.Context(), formValues(c), now())
	if err != nil {
		h.writeFailure(c, http.StatusOK, errSubmitReadings, "submit_readings_failed", err)
		return
	}
	writeText(c, snap)
}

// @Summary      Press the ownership button
// @Description  Claims the current load, collects it on a second press by its owner, or claims a fresh one.
// @Tags         device
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Param        name    formData  string  false  "Person pressing the button"  example(Sam)
// @Param        person  formData  string  false  "Alias of name"
// @Success      200  {string}  string  "key=json snapshot lines"
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/button [post]
func (h *Handler) pushButton(c *gin.Context) {
	name := c.PostForm("name")
	if strings.TrimSpace(name) == "" {
		name = c.PostForm("person")
	}
	snap, err := h.services.Button.PushButton(c.Request.Context(), name, now())
	if err != nil {
		h.writeFailure(c, http.StatusOK, errPushButton, "push_button_failed", err)
		return
	}
	writeText(c, snap)
}

// @Summary      Current status as text
// @Tags         device
// @Produce      plain
// @Success      200  {string}  string  "key=json snapshot lines"
// @Failure      500  {object}  map[string]string
// @Router       /api/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	snap, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSnapshot, "get_status_failed", err)
		return
	}
	writeText(c, snap)
}

// @Summary      Current snapshot
// @Tags         laundry
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/snapshot [get]
func (h *Handler) getSnapshot(c *gin.Context) {
	snap, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSnapshot, "get_snapshot_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Submit power readings (JSON)
// @Tags         laundry
// @Accept       json
// @Produce      json
// @Param        body  body  ReadingsRequest  true  "Amps per appliance name"
// @Success      200  {object}  models.Snapshot
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings [post]
func (h *Handler) submitReadingsJSON(c *gin.Context) {
	var req ReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	raw := make(map[string]string, len(req))
	for name, v := range req {
		raw[name] = formatAmps(v)
	}
	snap, err := h.services.Readings.SubmitReadings(c.Request.Context(), raw, now())
	if err != nil {
		h.writeFailure(c, http.StatusBadRequest, errSubmitReadings, "submit_readings_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Press the ownership button (JSON)
// @Tags         laundry
// @Accept       json
// @Produce      json
// @Param        body  body  ButtonRequest  true  "Who pressed"
// @Success      200  {object}  models.Snapshot
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/button [post]
func (h *Handler) pushButtonJSON(c *gin.Context) {
	var req ButtonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Button.PushButton(c.Request.Context(), req.Name, now())
	if err != nil {
		h.writeFailure(c, http.StatusBadRequest, errPushButton, "push_button_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
