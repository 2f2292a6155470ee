package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
	"github.com/campusfest/techfest-system/storage"
	"github.com/google/uuid"
)

type EventInput struct {
	Name                 string               `json:"name"`
	Date                 *time.Time           `json:"date"`
	Description          *string              `json:"description"`
	Location             *string              `json:"location"`
	Fees                 int                  `json:"fees"`
	Category             models.EventCategory `json:"category"`
	MaxParticipants      *int                 `json:"max_participants"`
	RegistrationDeadline *time.Time           `json:"registration_deadline"`
	IsTeamEvent          bool                 `json:"is_team_event"`
	MinTeamSize          int                  `json:"min_team_size"`
	MaxTeamSize          int                  `json:"max_team_size"`
	SemControlEnabled    bool                 `json:"sem_control_enabled"`
	MaxSem               *int                 `json:"max_sem"`
	Department           models.Department    `json:"department"`
	FormConfig           models.FormConfig    `json:"form_config"`
}

type ListEventsInput struct {
	Category   *models.EventCategory
	Department *models.Department
}

type EventService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	uploader  storage.FileUploader
	access    accessResolver
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		uploader:  uploader,
		access:    accessResolver{eventRepo: eventRepo, userRepo: userRepo},
		logger:    logger,
	}
}

// CreateEvent creates an event owned by the creator, who becomes its main
// coordinator. Only faculty and admins may create events.
func (s *EventService) CreateEvent(ctx context.Context, creatorID int, input EventInput) (*models.Event, error) {
	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", creatorID, err)
	}
	if creator.Role != models.RoleFaculty && creator.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:                 input.Name,
		Date:                 input.Date,
		Description:          input.Description,
		Location:             input.Location,
		Fees:                 input.Fees,
		Category:             input.Category,
		MaxParticipants:      input.MaxParticipants,
		RegistrationDeadline: input.RegistrationDeadline,
		IsTeamEvent:          input.IsTeamEvent,
		MinTeamSize:          input.MinTeamSize,
		MaxTeamSize:          input.MaxTeamSize,
		SemControlEnabled:    input.SemControlEnabled,
		MaxSem:               input.MaxSem,
		Department:           input.Department,
		FormConfig:           input.FormConfig,
		MainCoordinatorID:    creatorID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// UpdateEvent replaces the mutable attributes of an event. Gated by the
// access resolver: main coordinator, added coordinators, and admins.
func (s *EventService) UpdateEvent(ctx context.Context, eventID, actorID int, input EventInput) (*models.Event, error) {
	event, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return nil, err
	}

	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	event.Name = input.Name
	event.Date = input.Date
	event.Description = input.Description
	event.Location = input.Location
	event.Fees = input.Fees
	event.Category = input.Category
	event.MaxParticipants = input.MaxParticipants
	event.RegistrationDeadline = input.RegistrationDeadline
	event.IsTeamEvent = input.IsTeamEvent
	event.MinTeamSize = input.MinTeamSize
	event.MaxTeamSize = input.MaxTeamSize
	event.SemControlEnabled = input.SemControlEnabled
	event.MaxSem = input.MaxSem
	event.Department = input.Department
	event.FormConfig = input.FormConfig

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}
	s.populatePosterURL(event)
	return event, nil
}

// DeleteEvent removes an event; its registrations cascade away with it. The
// poster object is deleted best-effort.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, actorID int) error {
	event, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return err
	}

	if s.uploader != nil && event.PosterKey != nil && *event.PosterKey != "" {
		if err := s.uploader.Delete(ctx, *event.PosterKey); err != nil {
			s.logger.Error("failed to delete event poster",
				slog.Int("event_id", eventID), slog.Any("error", err))
		}
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	return nil
}

// TogglePublish flips the published flag and returns the updated event.
func (s *EventService) TogglePublish(ctx context.Context, eventID, actorID int) (*models.Event, error) {
	event, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.SetPublished(ctx, eventID, !event.IsPublished); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to toggle publish for event %d: %w", eventID, err)
	}
	event.IsPublished = !event.IsPublished
	s.populatePosterURL(event)
	return event, nil
}

// AddCoordinator grants management rights on the event to the user with the
// given email. Stricter than the general access check: only the main
// coordinator and admins may add coordinators; added coordinators cannot.
// Adding the same coordinator twice has no additional effect.
func (s *EventService) AddCoordinator(ctx context.Context, eventID, requesterID int, email string) error {
	event, err := s.access.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", requesterID, err)
	}
	if requester.Role != models.RoleAdmin && requester.ID != event.MainCoordinatorID {
		return ErrForbiddenOperation
	}

	target, err := s.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := s.eventRepo.AddCoordinator(ctx, eventID, target.ID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to add coordinator to event %d: %w", eventID, err)
	}
	return nil
}

// ListPublicEvents returns published events visible to the viewer, ascending
// by date (events without a date sort last). Students with a known semester
// only see events whose semester control admits them.
func (s *EventService) ListPublicEvents(ctx context.Context, viewer *models.User, input ListEventsInput) ([]models.Event, error) {
	filter := repositories.ListEventsFilter{
		PublishedOnly: true,
		Category:      input.Category,
		Department:    input.Department,
	}
	if viewer != nil && viewer.Role == models.RoleStudent && viewer.Semester != nil {
		filter.MaxSemAtLeast = viewer.Semester
	}

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for i := range events {
		s.populatePosterURL(&events[i])
	}
	return events, nil
}

// GetEventByID returns an event visible to the viewer. The semester
// exclusion is re-applied here independently of the list filter, and an
// ineligible viewer gets NotFound rather than Forbidden so the event's
// existence does not leak.
func (s *EventService) GetEventByID(ctx context.Context, eventID int, viewer *models.User) (*models.Event, error) {
	event, err := s.access.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !eventVisibleTo(event, viewer) {
		return nil, ErrEventNotFound
	}

	s.populatePosterURL(event)
	return event, nil
}

// UploadPoster stores an event poster and records its public URL. Replaces
// any previous poster object.
func (s *EventService) UploadPoster(ctx context.Context, eventID, actorID int, contentType string, file io.Reader) (*models.Event, error) {
	if s.uploader == nil {
		return nil, ErrPosterStorageDisabled
	}

	event, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, false)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedPosterType
	}

	key := fmt.Sprintf("events/%d/poster_%s", eventID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload poster for event %d: %w", eventID, err)
	}

	oldKey := event.PosterKey
	if err := s.eventRepo.UpdatePosterKey(ctx, eventID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store poster key for event %d: %w", eventID, err)
	}
	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Error("failed to delete previous poster",
				slog.Int("event_id", eventID), slog.Any("error", delErr))
		}
	}

	event.PosterKey = &result.Key
	s.populatePosterURL(event)
	return event, nil
}

// eventVisibleTo applies the public visibility rules. Users with management
// rights always see their event; everyone else needs it published, and
// students with a known semester are excluded by semester control.
func eventVisibleTo(event *models.Event, viewer *models.User) bool {
	if viewer != nil && CheckEventAccess(event, viewer) {
		return true
	}
	if !event.IsPublished {
		return false
	}
	if viewer != nil && viewer.Role == models.RoleStudent && viewer.Semester != nil && event.SemControlEnabled {
		if event.MaxSem == nil || *event.MaxSem < *viewer.Semester {
			return false
		}
	}
	return true
}

func (s *EventService) populatePosterURL(event *models.Event) {
	if s.uploader == nil || event.PosterKey == nil || *event.PosterKey == "" {
		return
	}
	if url := s.uploader.GetPublicURL(*event.PosterKey); url != "" {
		event.PosterURL = &url
	}
}

func validateEventInput(input *EventInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrEventNameRequired
	}
	if input.Fees < 0 {
		return ErrEventInvalidFees
	}
	if !input.Category.Valid() {
		return ErrEventInvalidCategory
	}
	if input.Department == "" {
		input.Department = models.DepartmentAll
	}
	if !input.Department.Valid() {
		return ErrEventInvalidDepartment
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return ErrEventInvalidCapacity
	}

	if input.IsTeamEvent {
		if input.MinTeamSize < 1 || input.MinTeamSize > input.MaxTeamSize {
			return ErrEventInvalidTeamBounds
		}
	} else {
		input.MinTeamSize = 1
		input.MaxTeamSize = 1
	}

	if input.SemControlEnabled {
		if input.MaxSem == nil || *input.MaxSem < 1 || *input.MaxSem > 8 {
			return ErrEventInvalidMaxSem
		}
	} else if input.MaxSem != nil {
		return ErrEventInvalidMaxSem
	}

	return nil
}
