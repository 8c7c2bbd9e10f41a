package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
)

type PlaceHandler struct {
	service ports.PlaceService
	log     logging.Logger
}

func NewPlaceHandler(service ports.PlaceService, log logging.Logger) *PlaceHandler {
	return &PlaceHandler{service: service, log: log}
}

func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	places, err := h.service.List(r.Context(), session.UserID)
	if err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var in domain.PlaceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}

	place, err := h.service.Create(r.Context(), session.UserID, in)
	if err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}
	writeJSON(w, http.StatusCreated, place)
}

func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var in domain.PlaceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}

	place, err := h.service.Update(r.Context(), session.UserID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}
	writeJSON(w, http.StatusOK, place)
}

func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	if err := h.service.Delete(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		writeError(w, r, h.log, err, "Place")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
