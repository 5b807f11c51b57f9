package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/diacritics-settings/internal/apiversion"
	"github.com/eugenenazirov/diacritics-settings/internal/diacritics"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Settings is the view of the shared diacritics settings the handlers need.
type Settings interface {
	DatabaseURL() string
	ValidFilters() []string
	Version() string
	Number() int64
	Endpoint() string
	TrySetVersion(candidate any) (diacritics.UpdateResult, error)
}

// Handler exposes the diacritics settings over HTTP.
type Handler struct {
	settings Settings

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler backed by settings.
func NewHandler(settings Settings, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings: settings,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	resp := settingsResponse{
		DatabaseURL:  h.settings.DatabaseURL(),
		Version:      h.settings.Version(),
		Endpoint:     h.settings.Endpoint(),
		ValidFilters: h.settings.ValidFilters(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	resp := versionResponse{
		Version: h.settings.Version(),
		Number:  h.settings.Number(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutVersion(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	switch req.Version.(type) {
	case nil, string, float64, bool:
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", "version must be a string or a number")
		return
	}

	res, err := h.settings.TrySetVersion(req.Version)

	resp := versionUpdateResponse{
		Version:         res.Version,
		PreviousVersion: res.Previous,
		Applied:         res.Applied,
		Outcome:         string(res.Outcome),
		Message:         updateMessage(res, err),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, filtersResponse{Filters: h.settings.ValidFilters()})
}

func (h *Handler) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	filter, ok := diacritics.LookupFilter(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown filter", "filter "+name+" is not accepted by the diacritics API",
			"Use one of: "+strings.Join(h.settings.ValidFilters(), ", "))
		return
	}
	writeJSON(w, http.StatusOK, filterResponse{Name: name, Filter: filter})
}

func updateMessage(res diacritics.UpdateResult, err error) string {
	switch {
	case res.Outcome == diacritics.OutcomeDowngraded:
		return "API version downgraded"
	case res.Outcome == diacritics.OutcomeReaffirmed:
		return "API version unchanged"
	case errors.Is(err, diacritics.ErrUpgrade):
		return "upgrading past " + res.Previous + " is not allowed"
	case errors.Is(err, apiversion.ErrNonPositive):
		return "version must be a positive integer"
	case errors.Is(err, apiversion.ErrNotANumber):
		return "version does not contain a number"
	default:
		return "version update rejected"
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type versionRequest struct {
	Version any `json:"version"`
}

type versionResponse struct {
	Version string `json:"version"`
	Number  int64  `json:"number"`
}

type versionUpdateResponse struct {
	Version         string `json:"version"`
	PreviousVersion string `json:"previousVersion"`
	Applied         bool   `json:"applied"`
	Outcome         string `json:"outcome"`
	Message         string `json:"message"`
}

type settingsResponse struct {
	DatabaseURL  string   `json:"databaseUrl"`
	Version      string   `json:"version"`
	Endpoint     string   `json:"endpoint"`
	ValidFilters []string `json:"validFilters"`
}

type filtersResponse struct {
	Filters []string `json:"filters"`
}

type filterResponse struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
