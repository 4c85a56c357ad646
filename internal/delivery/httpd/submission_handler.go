package httpd

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/umnlabs/checkoff/internal/models"
)

// CreateSubmission accepts either a JSON body referencing an already
// uploaded video, or a multipart form where the video file is streamed
// into the object store.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.createFromUpload(w, r, user)
		return
	}

	var req models.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.submissionService.Create(r.Context(), user, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

func (h *Handler) createFromUpload(w http.ResponseWriter, r *http.Request, user *models.User) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or malformed form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Video file is required")
		return
	}
	defer file.Close()

	req := models.UploadSubmissionRequest{
		LabCode:  r.FormValue("lab_code"),
		LabTitle: r.FormValue("lab_title"),
		Notes:    r.FormValue("notes"),
		RepoURL:  r.FormValue("repo_url"),
		FileName: header.Filename,
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := h.submissionService.Upload(r.Context(), user, &req, file, header.Size, contentType)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := models.SubmissionFilter{
		LabCode: r.URL.Query().Get("lab"),
		Section: r.URL.Query().Get("section"),
		Status:  r.URL.Query().Get("status"),
	}

	resp, err := h.submissionService.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) SignedVideoURL(w http.ResponseWriter, r *http.Request) {
	var req models.SignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.submissionService.SignedVideoURL(r.Context(), req.Path)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, resp)
}
