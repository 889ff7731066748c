package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Assay/internal/janitor"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type AdminHandler struct {
	store   store.Store
	janitor *janitor.Janitor
}

func NewAdminHandler(s store.Store, j *janitor.Janitor) *AdminHandler {
	return &AdminHandler{store: s, janitor: j}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, scoring.WrapPersistence("get stats", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// PurgeOrphans removes orphaned scores for ?owner=, or for every owner when
// the parameter is absent.
func (h *AdminHandler) PurgeOrphans(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	n, err := h.janitor.Purge(r.Context(), owner)
	if err != nil {
		writeError(w, scoring.WrapPersistence("purge orphans", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"owner": owner, "removed": n})
}
