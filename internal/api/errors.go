package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/placement"
	"github.com/sells-group/rfplan/internal/store"
)

// apiError maps a domain error to a status, an error code and a
// user-facing message.
type apiError struct {
	target  error
	status  int
	code    string
	message string
}

var errorTable = []apiError{
	{store.ErrSelfLink, http.StatusBadRequest, "self_link", "Cannot link same tower"},
	{store.ErrFrequencyMismatch, http.StatusBadRequest, "frequency_mismatch", "Frequencies must match to create link"},
	{store.ErrInvalidTower, http.StatusBadRequest, "invalid_tower", "Invalid tower position or frequency"},
	{model.ErrMalformedKey, http.StatusBadRequest, "malformed_key", "Malformed link key"},
	{store.ErrTowerNotFound, http.StatusNotFound, "tower_not_found", "Tower not found"},
	{enrich.ErrStaleLink, http.StatusNotFound, "link_not_found", "Link not found"},
	{store.ErrDuplicateLink, http.StatusConflict, "duplicate_link", "Link already exists"},
	{store.ErrConstraintViolation, http.StatusConflict, "tower_linked", "Cannot delete tower, it is part of an existing link."},
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	if re, ok := placement.AsRejection(err); ok {
		h.writeError(w, http.StatusUnprocessableEntity, "placement_rejected", re.Message, map[string]any{
			"reason": re.Reason,
			"lat":    re.Lat,
			"lng":    re.Lng,
		})
		return
	}
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			h.writeError(w, e.status, e.code, e.message, map[string]any{"error": err.Error()})
			return
		}
	}
	h.log.Error("api: unexpected error", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
}
