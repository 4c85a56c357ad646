package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/service"
)

var validate = validator.New()

type Handler struct {
	authService       service.AuthService
	submissionService service.SubmissionService
	reviewService     service.ReviewService
	gradebookService  service.GradebookService
	maxUploadSize     int64
	logger            zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	submissionService service.SubmissionService,
	reviewService service.ReviewService,
	gradebookService service.GradebookService,
	maxUploadSize int64,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:       authService,
		submissionService: submissionService,
		reviewService:     reviewService,
		gradebookService:  gradebookService,
		maxUploadSize:     maxUploadSize,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/check-email", h.CheckEmail)

		api.Group(func(authed chi.Router) {
			authed.Use(h.Authenticate)

			authed.Get("/me", h.Me)
			authed.Post("/submissions", h.CreateSubmission)

			authed.Group(func(ta chi.Router) {
				ta.Use(h.RequireRole(models.RoleTA))

				ta.Get("/submissions", h.ListSubmissions)
				ta.Post("/submissions/{id}/decision", h.Decide)
				ta.Post("/videos/signed-url", h.SignedVideoURL)
				ta.Get("/gradebook", h.GetGradebook)
				ta.Get("/gradebook/export", h.ExportGradebook)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "checkoff",
		"timestamp": time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "TA or admin role required")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Submission not found")
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
