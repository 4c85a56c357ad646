package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/umnlabs/checkoff/internal/models"
)

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SubmissionID = chi.URLParam(r, "id")

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.reviewService.Decide(r.Context(), reviewer, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, resp)
}
