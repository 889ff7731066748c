package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/evaluation"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type ScoresHandler struct {
	svc *evaluation.Service
}

func NewScoresHandler(svc *evaluation.Service) *ScoresHandler {
	return &ScoresHandler{svc: svc}
}

type UpsertScoreRequest struct {
	SubjectID     string   `json:"subject_id"`
	AlternativeID string   `json:"alternative_id,omitempty"`
	CriterionID   string   `json:"criterion_id"`
	Score         *float64 `json:"score"`
}

func (h *ScoresHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cid, err := uuid.Parse(req.CriterionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid criterion_id"})
		return
	}
	if req.Score == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "score required"})
		return
	}

	rec := &store.ScoreRecord{
		Owner:         ownerFrom(r),
		SubjectID:     req.SubjectID,
		AlternativeID: req.AlternativeID,
		CriterionID:   cid,
		Score:         *req.Score,
	}
	if err := h.svc.UpsertScore(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ScoresHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListScores(r.Context(), store.ScoreFilter{
		Owner:     ownerFrom(r),
		SubjectID: r.URL.Query().Get("subject_id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*store.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
