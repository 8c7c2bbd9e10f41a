package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type LinkHandler struct {
	service ports.LinkService
	log     logging.Logger
}

func NewLinkHandler(service ports.LinkService, log logging.Logger) *LinkHandler {
	return &LinkHandler{service: service, log: log}
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	links, err := h.service.List(r.Context(), session.UserID)
	if err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var in domain.LinkInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}

	link, err := h.service.Create(r.Context(), session.UserID, in)
	if err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var in domain.LinkInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}

	link, err := h.service.Update(r.Context(), session.UserID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	if err := h.service.Delete(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		writeError(w, r, h.log, err, "Link")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
