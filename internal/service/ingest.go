package service

import (
	"math"
	"strconv"
	"strings"

	"laundrybot/internal/models"
)

// Per-field validation messages, as the power meter expects them.
const (
	msgNotProvided = "value was not provided"
	msgNotANumber  = "value is not a number"
)

// ParseReadings extracts one numeric reading per appliance from raw, keyed by
// appliance name. All fields are checked before failing, so the returned
// models.ValidationErrors names every bad field at once.
func ParseReadings(apps []models.Appliance, raw map[string]string) (map[int]float64, error) {
	values := make(map[int]float64, len(apps))
	errs := models.ValidationErrors{}
	for _, a := range apps {
		s := strings.TrimSpace(raw[a.Name])
		if s == "" {
			errs[a.Name] = msgNotProvided
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs[a.Name] = msgNotANumber
			continue
		}
		values[a.ID] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}
