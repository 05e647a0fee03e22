package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rainmaps/raincast/internal/dataset"
	"github.com/rainmaps/raincast/internal/forecast"
	"github.com/rainmaps/raincast/internal/interpreter"
	"github.com/rainmaps/raincast/internal/observability"
)

type handlers struct {
	engine  *forecast.Engine
	metrics *observability.Metrics
	logger  *slog.Logger
	tz      *time.Location
}

// forecastResponse is the payload for all lookup routes.
type forecastResponse struct {
	Dataset     string      `json:"dataset"`
	CreatedAt   time.Time   `json:"created_at"`
	Slot        int         `json:"slot"`
	StepMinutes int         `json:"step_minutes"`
	Series      []float32   `json:"series"`
	Events      []eventJSON `json:"events"`
}

type eventJSON struct {
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Gaps  int    `json:"gaps,omitempty"`

	// From and To are wall-clock HH:MM in the display timezone.
	From string `json:"from"`
	To   string `json:"to"`
}

type errorResponse struct {
	Error      string `json:"error"`
	AgeMinutes *int64 `json:"age_minutes,omitempty"`
}

func (h *handlers) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lon query parameters are required"})
		return
	}

	h.lookup(w, "coordinates", func() (dataset.Prediction, bool) {
		return h.engine.ByCoordinates(lat, lon)
	})
}

func (h *handlers) handlePostcode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	switch len(code) {
	case 6:
		h.lookup(w, "postcode6", func() (dataset.Prediction, bool) {
			return h.engine.ByPostcode(code)
		})
	case 4:
		h.lookup(w, "postcode4", func() (dataset.Prediction, bool) {
			return h.engine.ByPostcode4(code)
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "postcode must be 6 characters, or 4 digits for an area lookup"})
	}
}

func (h *handlers) handleOffset(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(chi.URLParam(r, "offset"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset must be an integer"})
		return
	}

	h.lookup(w, "offset", func() (dataset.Prediction, bool) {
		return h.engine.ByOffset(offset)
	})
}

// lookup runs the slot resolution and cell lookup shared by all routes.
func (h *handlers) lookup(w http.ResponseWriter, method string, find func() (dataset.Prediction, bool)) {
	slot, err := h.engine.CurrentSlot()
	if err != nil {
		h.metrics.StaleRejections.Inc()

		resp := errorResponse{Error: err.Error()}
		var stale *forecast.StaleDatasetError
		if errors.As(err, &stale) {
			resp.AgeMinutes = &stale.Minutes
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	pred, ok := find()
	if !ok {
		h.metrics.Lookups.WithLabelValues(method, "miss").Inc()
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no forecast for this location"})
		return
	}
	h.metrics.Lookups.WithLabelValues(method, "hit").Inc()

	writeJSON(w, http.StatusOK, h.render(pred, slot))
}

func (h *handlers) render(pred dataset.Prediction, slot int) forecastResponse {
	createdAt := h.engine.CreatedAt()

	events := interpreter.Events(slot, pred)
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, eventJSON{
			Kind:  ev.Kind.String(),
			Start: ev.Start,
			End:   ev.End,
			Gaps:  ev.Gaps,
			From:  h.clockTime(createdAt, ev.Start),
			To:    h.clockTime(createdAt, ev.End),
		})
	}

	return forecastResponse{
		Dataset:     h.engine.Filename(),
		CreatedAt:   createdAt,
		Slot:        slot,
		StepMinutes: 5,
		Series:      pred,
		Events:      out,
	}
}

// clockTime converts a slot index to a wall-clock HH:MM in the display
// timezone.
func (h *handlers) clockTime(createdAt time.Time, slot int) string {
	return createdAt.Add(time.Duration(slot) * 5 * time.Minute).In(h.tz).Format("15:04")
}

func (h *handlers) handleInfo(w http.ResponseWriter, _ *http.Request) {
	info := map[string]any{
		"dataset":          h.engine.Filename(),
		"kind":             h.engine.Kind().String(),
		"created_at":       h.engine.CreatedAt(),
		"postcode_enabled": h.engine.HasPostcodeIndex(),
	}
	if slot, err := h.engine.CurrentSlot(); err == nil {
		info["slot"] = slot
	}
	writeJSON(w, http.StatusOK, info)
}
