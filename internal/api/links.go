package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/fresnel"
	"github.com/sells-group/rfplan/internal/model"
)

type createLinkRequest struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

type linkResponse struct {
	Link         model.Link    `json:"link"`
	Key          model.LinkKey `json:"key"`
	PolygonShown bool          `json:"polygon_shown"`
}

type linkDetail struct {
	enrich.LinkSummary
	Fresnel   model.Polygon           `json:"fresnel,omitempty"`
	Elevation []model.ElevationSample `json:"elevation,omitempty"`
}

type toggleResponse struct {
	Key   model.LinkKey `json:"key"`
	Shown bool          `json:"shown"`
}

func (h *Handler) linkKeyParam(w http.ResponseWriter, r *http.Request) (model.LinkKey, bool) {
	key, err := model.ParseLinkKey(chi.URLParam(r, "key"))
	if err != nil {
		h.writeDomainError(w, err)
		return model.LinkKey{}, false
	}
	return key, true
}

func (h *Handler) handleListLinks(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.graph.Links())
}

func (h *Handler) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", map[string]any{"error": err.Error()})
		return
	}

	link, err := h.graph.AddLink(req.FromID, req.ToID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := linkResponse{Link: link, Key: link.Key()}
	if _, err := h.orch.OnLinkCreated(r.Context(), link); err != nil {
		// Deleted between AddLink and here; the link response still stands.
		h.log.Debug("link enrichment skipped", zap.Stringer("link", link.Key()), zap.Error(err))
	} else {
		_, resp.PolygonShown = h.graph.FresnelPolygon(link.Key())
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetLink(w http.ResponseWriter, r *http.Request) {
	key, ok := h.linkKeyParam(w, r)
	if !ok {
		return
	}
	summary, err := enrich.Describe(h.graph, key)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	detail := linkDetail{LinkSummary: summary}
	detail.Fresnel, _ = h.graph.FresnelPolygon(key)
	detail.Elevation, _ = h.graph.ElevationProfile(key)
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	key, ok := h.linkKeyParam(w, r)
	if !ok {
		return
	}
	if !h.graph.RemoveLinkByKey(key) {
		h.writeDomainError(w, eris.Wrapf(enrich.ErrStaleLink, "link %s", key))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleLink(w http.ResponseWriter, r *http.Request) {
	key, ok := h.linkKeyParam(w, r)
	if !ok {
		return
	}
	shown, _, err := h.orch.Toggle(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toggleResponse{Key: key, Shown: shown})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.graph.Snapshot())
}

// handleFresnelGeoJSON renders every link as a centreline plus its Fresnel
// zone when one is cached.
func (h *Handler) handleFresnelGeoJSON(w http.ResponseWriter, _ *http.Request) {
	snap := h.graph.Snapshot()
	towers := make(map[string]model.Tower, len(snap.Towers))
	for _, t := range snap.Towers {
		towers[t.ID] = t
	}

	var features []*geojson.Feature
	for _, l := range snap.Links {
		a, b := towers[l.FromID], towers[l.ToID]
		freq := (a.FreqGHz + b.FreqGHz) / 2
		fs, err := fresnel.LinkFeatures(l.Key(), a.Point(), b.Point(), freq, snap.Polygons[l.Key()])
		if err != nil {
			h.log.Warn("api: skip link feature", zap.Stringer("link", l.Key()), zap.Error(err))
			continue
		}
		features = append(features, fs...)
	}

	body, err := fresnel.MarshalCollection(features)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
