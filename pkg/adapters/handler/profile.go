package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
	uploads ports.UploadService
	log     logging.Logger
}

func NewProfileHandler(service ports.ProfileService, uploads ports.UploadService, log logging.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, uploads: uploads, log: log}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	profile, err := h.service.Owner(r.Context(), session.UserID)
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var in domain.ProfileUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}

	user, err := h.service.Update(r.Context(), session.UserID, in)
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Public(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Public(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, r, h.log, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Upload presigns a direct upload for an avatar or background image. The
// client PUTs the file and then saves the returned public URL with PUT /me.
func (h *ProfileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var req domain.UploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err, "Upload")
		return
	}

	upload, err := h.uploads.Presign(r.Context(), session.UserID, req)
	if err != nil {
		writeError(w, r, h.log, err, "Upload")
		return
	}
	writeJSON(w, http.StatusOK, upload)
}
