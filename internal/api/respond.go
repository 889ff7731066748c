package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto status codes: bad input 400, unknown
// criterion 404, store failure 503.
func writeError(w http.ResponseWriter, err error) {
	var ve *scoring.ValidationError
	var pe *scoring.PersistenceError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, scoring.ErrCriterionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &pe):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
