package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Assay/internal/evaluation"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type EvaluationHandler struct {
	svc *evaluation.Service
}

func NewEvaluationHandler(svc *evaluation.Service) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

type ScoreResponse struct {
	SubjectID     string  `json:"subject_id"`
	AlternativeID string  `json:"alternative_id,omitempty"`
	WeightedScore float64 `json:"weighted_score"`
}

type RankingResponse struct {
	SubjectID string           `json:"subject_id"`
	Ranking   []scoring.Ranked `json:"ranking"`
}

type RecommendationResponse struct {
	SubjectID      string          `json:"subject_id"`
	Recommendation *scoring.Ranked `json:"recommendation"`
}

type FrontierResponse struct {
	SubjectID string   `json:"subject_id"`
	Frontier  []string `json:"frontier"`
}

// request reads the module type and subject from the path and the
// repeated ?alternative= parameters.
func request(r *http.Request) evaluation.Request {
	return evaluation.Request{
		Owner:        ownerFrom(r),
		ModuleType:   store.ModuleType(chi.URLParam(r, "module_type")),
		SubjectID:    chi.URLParam(r, "subject_id"),
		Alternatives: r.URL.Query()["alternative"],
	}
}

func (h *EvaluationHandler) Score(w http.ResponseWriter, r *http.Request) {
	req := request(r)
	alt := r.URL.Query().Get("alternative_id")
	score, err := h.svc.WeightedScore(r.Context(), req, alt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{SubjectID: req.SubjectID, AlternativeID: alt, WeightedScore: score})
}

func (h *EvaluationHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	req := request(r)
	ranked, err := h.svc.Ranking(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RankingResponse{SubjectID: req.SubjectID, Ranking: ranked})
}

func (h *EvaluationHandler) Recommendation(w http.ResponseWriter, r *http.Request) {
	req := request(r)
	best, ok, err := h.svc.Recommendation(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := RecommendationResponse{SubjectID: req.SubjectID}
	if ok {
		resp.Recommendation = &best
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EvaluationHandler) Explain(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Explain(r.Context(), request(r), r.URL.Query().Get("alternative_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EvaluationHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	req := request(r)
	frontier, err := h.svc.Frontier(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FrontierResponse{SubjectID: req.SubjectID, Frontier: frontier})
}

func (h *EvaluationHandler) Modules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Profiles())
}
