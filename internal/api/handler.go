package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"autodim/internal/config"
	"autodim/internal/luma"
	"autodim/internal/relay"
	"autodim/internal/store"
)

// Handler serves the dimming control API: configuration reads and writes,
// per-view status and manual dim commands.
type Handler struct {
	Bus   *relay.Bus
	Store *store.Store
}

func NewHandler(bus *relay.Bus, st *store.Store) *Handler {
	return &Handler{Bus: bus, Store: st}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// GetConfig returns the stored configuration snapshot.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.LoadConfig()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PutConfig replaces the stored snapshot as a whole and notifies every
// registered view. Partial updates are not supported.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var snap config.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid config payload"})
		return
	}
	if err := h.Store.SaveConfig(snap); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	h.Bus.BroadcastConfigUpdated()
	writeJSON(w, http.StatusOK, snap.Normalize())
}

// ListViews returns the IDs of registered views.
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"views": h.Bus.Views()})
}

// ViewStatus reports one view's dimming state. An unregistered view is a
// 404: the caller cannot tell a closed view from one that never existed.
func (h *Handler) ViewStatus(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "view")
	status, err := h.Bus.Status(viewID)
	if errors.Is(err, relay.ErrViewUnavailable) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "view unavailable"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type manualDimRequest struct {
	Level float64 `json:"level"`
}

// ManualDim forces a view's dim level, bypassing policy. Returns 202: the
// transition may still be animating when the response lands.
func (h *Handler) ManualDim(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "view")

	var req manualDimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid dim payload"})
		return
	}

	level := luma.Clamp(req.Level)
	if err := h.Bus.ManualDim(viewID, level); err != nil {
		if errors.Is(err, relay.ErrViewUnavailable) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "view unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, manualDimRequest{Level: level})
}
