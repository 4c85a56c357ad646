package httpd

import (
	"fmt"
	"net/http"

	"github.com/umnlabs/checkoff/internal/models"
)

func (h *Handler) GetGradebook(w http.ResponseWriter, r *http.Request) {
	filter := models.GradebookFilter{
		Section: r.URL.Query().Get("section"),
		LabCode: r.URL.Query().Get("lab"),
	}

	resp, err := h.gradebookService.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) ExportGradebook(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	section := r.URL.Query().Get("section")

	filename, data, err := h.gradebookService.Export(r.Context(), format, section)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
