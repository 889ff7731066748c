package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Assay/internal/config"
	"github.com/MikeSquared-Agency/Assay/internal/criteria"
	"github.com/MikeSquared-Agency/Assay/internal/evaluation"
	"github.com/MikeSquared-Agency/Assay/internal/janitor"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

func NewRouter(s store.Store, m *criteria.Manager, svc *evaluation.Service, j *janitor.Janitor, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))

	crit := NewCriteriaHandler(m)
	scores := NewScoresHandler(svc)
	eval := NewEvaluationHandler(svc)
	admin := NewAdminHandler(s, j)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(OwnerMiddleware)

		r.Get("/modules", eval.Modules)

		r.Get("/criteria", crit.List)
		r.Post("/criteria", crit.Create)
		r.Get("/criteria/{id}", crit.Get)
		r.Patch("/criteria/{id}", crit.Update)
		r.Delete("/criteria/{id}", crit.Delete)

		r.Put("/scores", scores.Upsert)
		r.Get("/scores", scores.List)

		r.Route("/evaluation/{module_type}/subjects/{subject_id}", func(r chi.Router) {
			r.Get("/score", eval.Score)
			r.Get("/ranking", eval.Ranking)
			r.Get("/recommendation", eval.Recommendation)
			r.Get("/explain", eval.Explain)
			r.Get("/frontier", eval.Frontier)
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Get("/admin/stats", admin.Stats)
			r.Post("/admin/orphans/purge", admin.PurgeOrphans)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
