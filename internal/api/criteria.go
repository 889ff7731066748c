package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/criteria"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type CriteriaHandler struct {
	manager *criteria.Manager
}

func NewCriteriaHandler(m *criteria.Manager) *CriteriaHandler {
	return &CriteriaHandler{manager: m}
}

type CriteriaListResponse struct {
	Criteria []*store.Criterion `json:"criteria"`
	scoring.WeightBalance
}

func (h *CriteriaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req criteria.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Owner = ownerFrom(r)

	c, err := h.manager.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CriteriaHandler) List(w http.ResponseWriter, r *http.Request) {
	module := store.ModuleType(r.URL.Query().Get("module_type"))
	list, err := h.manager.List(r.Context(), ownerFrom(r), module)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*store.Criterion{}
	}
	writeJSON(w, http.StatusOK, CriteriaListResponse{Criteria: list, WeightBalance: scoring.Balance(list)})
}

func (h *CriteriaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := criterionID(w, r)
	if !ok {
		return
	}
	c, err := h.manager.Get(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CriteriaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := criterionID(w, r)
	if !ok {
		return
	}
	var patch criteria.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.manager.Update(r.Context(), ownerFrom(r), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CriteriaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := criterionID(w, r)
	if !ok {
		return
	}
	if err := h.manager.Delete(r.Context(), ownerFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func criterionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid criterion id"})
		return uuid.Nil, false
	}
	return id, true
}
