package handlers

import (
	"errors"
	"net/http"

	"github.com/campusfest/techfest-system/middleware"
	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/services"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// List godoc
// @Summary List published events visible to the viewer
// @Tags events
// @Produce json
// @Param category query string false "Filter by category (TECH, CULTURAL, SPORTS)"
// @Param department query string false "Filter by department"
// @Success 200 {object} map[string]interface{} "Events"
// @Router /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var input services.ListEventsInput

	if raw := r.URL.Query().Get("category"); raw != "" {
		category := models.EventCategory(raw)
		if !category.Valid() {
			badRequestResponse(w, r, errors.New("invalid category query parameter"))
			return
		}
		input.Category = &category
	}
	if raw := r.URL.Query().Get("department"); raw != "" {
		department := models.Department(raw)
		if !department.Valid() {
			badRequestResponse(w, r, errors.New("invalid department query parameter"))
			return
		}
		input.Department = &department
	}

	events, err := h.eventService.ListPublicEvents(r.Context(), viewerFromContext(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Get a single event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{} "Event"
// @Failure 404 {object} map[string]string "Event not found or not visible"
// @Router /events/{eventID} [get]
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEventByID(r.Context(), eventID, viewerFromContext(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create godoc
// @Summary Create an event
// @Tags events
// @Description The creator becomes the event's main coordinator. Faculty and admins only.
// @Accept json
// @Produce json
// @Param body body services.EventInput true "Event attributes"
// @Success 201 {object} map[string]interface{} "Created event"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Students cannot create events"
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.EventInput true "Event attributes"
// @Success 200 {object} map[string]interface{} "Updated event"
// @Failure 403 {object} map[string]string "Not a coordinator of this event"
// @Security BearerAuth
// @Router /events/{eventID} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), eventID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Delete an event and its registrations
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} map[string]string "Not a coordinator of this event"
// @Security BearerAuth
// @Router /events/{eventID} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.eventService.DeleteEvent(r.Context(), eventID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "event deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TogglePublish godoc
// @Summary Toggle an event's published flag
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{} "Updated event"
// @Security BearerAuth
// @Router /events/{eventID}/publish [patch]
func (h *EventHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.eventService.TogglePublish(r.Context(), eventID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddCoordinator godoc
// @Summary Add a coordinator to an event by email
// @Tags events
// @Description Only the main coordinator and admins may add coordinators.
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]string "Coordinator added"
// @Failure 404 {object} map[string]string "No account with that email"
// @Security BearerAuth
// @Router /events/{eventID}/coordinators [post]
func (h *EventHandler) AddCoordinator(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	if err := h.eventService.AddCoordinator(r.Context(), eventID, currentUserID, input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "coordinator added"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPoster godoc
// @Summary Upload an event poster image
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Param poster formData file true "Poster image"
// @Success 200 {object} map[string]interface{} "Event with poster URL"
// @Failure 400 {object} map[string]string "Not an image or storage disabled"
// @Security BearerAuth
// @Router /events/{eventID}/poster [post]
func (h *EventHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
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

	// 10MB ceiling for the multipart form.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("poster")
	if err != nil {
		badRequestResponse(w, r, errors.New("poster file is required"))
		return
	}
	defer file.Close()

	event, err := h.eventService.UploadPoster(r.Context(), eventID, currentUserID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
