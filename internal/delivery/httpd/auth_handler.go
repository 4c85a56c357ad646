package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/umnlabs/checkoff/internal/models"
)

// CheckEmail lets the sign-in form verify the email domain before the
// identity provider round trip. A disallowed domain is rejected outright.
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req models.CheckEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.authService.EmailAllowed(req.Email) {
		writeError(w, http.StatusForbidden,
			fmt.Sprintf("Only %s email addresses are allowed", h.authService.AllowedSuffix()))
		return
	}

	writeSuccess(w, models.CheckEmailResponse{Allowed: true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeSuccess(w, user)
}
