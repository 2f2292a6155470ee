package handlers

import (
	"errors"
	"net/http"

	"github.com/campusfest/techfest-system/middleware"
	"github.com/campusfest/techfest-system/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// RegisterSelf godoc
// @Summary Register the authenticated student for an event
// @Tags registrations
// @Description Enforces, in order: deadline, capacity, duplicate, team shape, required form fields.
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.SelfRegisterInput true "Team and form answers"
// @Success 201 {object} map[string]interface{} "Registration created"
// @Failure 400 {object} map[string]string "Deadline passed, team invalid, or form incomplete"
// @Failure 409 {object} map[string]string "Already registered or event full"
// @Security BearerAuth
// @Router /events/{eventID}/registrations [post]
func (h *RegistrationHandler) RegisterSelf(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.SelfRegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.RegisterSelf(r.Context(), eventID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterManual godoc
// @Summary Register a student on their behalf (offline registration)
// @Tags registrations
// @Description Creates a student account for the email if none exists; generated credentials are emailed, never returned.
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.ManualRegisterInput true "Student identity"
// @Success 201 {object} map[string]interface{} "Registration created"
// @Failure 403 {object} map[string]string "Not allowed to manage this event"
// @Failure 409 {object} map[string]string "Student already registered"
// @Security BearerAuth
// @Router /events/{eventID}/registrations/manual [post]
func (h *RegistrationHandler) RegisterManual(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.ManualRegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Name == "" || input.Email == "" {
		badRequestResponse(w, r, errors.New("name and email are required"))
		return
	}

	registration, err := h.registrationService.RegisterManual(r.Context(), eventID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByEvent godoc
// @Summary List registrations for an event
// @Tags registrations
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{} "Registrations with student identities"
// @Failure 403 {object} map[string]string "Not allowed to manage this event"
// @Security BearerAuth
// @Router /events/{eventID}/registrations [get]
func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	registrations, err := h.registrationService.ListByEvent(r.Context(), eventID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyRegistrations godoc
// @Summary List the authenticated student's registrations
// @Tags registrations
// @Produce json
// @Success 200 {object} map[string]interface{} "Registrations with event summaries"
// @Security BearerAuth
// @Router /registrations/my [get]
func (h *RegistrationHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	registrations, err := h.registrationService.ListByStudent(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Cancel godoc
// @Summary Cancel one of the authenticated student's registrations
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]string "Canceled"
// @Failure 403 {object} map[string]string "Registration belongs to someone else"
// @Security BearerAuth
// @Router /registrations/{registrationID} [delete]
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.registrationService.CancelRegistration(r.Context(), registrationID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "registration canceled"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
