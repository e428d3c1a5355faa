package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type placeTowerRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Freq float64  `json:"freq"`
}

type updateTowerRequest struct {
	Freq float64 `json:"freq"`
}

func (h *Handler) handleListTowers(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.graph.Towers())
}

func (h *Handler) handlePlaceTower(w http.ResponseWriter, r *http.Request) {
	var req placeTowerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", map[string]any{"error": err.Error()})
		return
	}
	if req.Lat == nil || req.Lng == nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "lat and lng are required", nil)
		return
	}

	t, err := h.gate.Place(r.Context(), *req.Lat, *req.Lng, req.Freq)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.Info("tower placed", zap.String("id", t.ID), zap.Float64("lat", t.Lat), zap.Float64("lng", t.Lng))
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleUpdateTower(w http.ResponseWriter, r *http.Request) {
	var req updateTowerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", map[string]any{"error": err.Error()})
		return
	}
	t, err := h.graph.UpdateTowerFrequency(chi.URLParam(r, "id"), req.Freq)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDeleteTower(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.graph.RemoveTower(id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.log.Info("tower removed", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePrefetchPlaces(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.orch.PrefetchPlaceNames(r.Context()))
}
