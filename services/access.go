package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
)

// CheckEventAccess reports whether the user may manage the event: admins,
// the main coordinator, and added coordinators pass; everyone else does not.
// The event must have its coordinator set loaded.
func CheckEventAccess(event *models.Event, user *models.User) bool {
	if event == nil || user == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	if user.ID == event.MainCoordinatorID {
		return true
	}
	for _, id := range event.CoordinatorIDs {
		if id == user.ID {
			return true
		}
	}
	return false
}

// accessResolver loads the entities needed for an event access decision.
type accessResolver struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
}

// resolveEventAccess fetches the event (with its coordinator set) and the
// acting user, then checks management rights. With facultyBypass set, any
// FACULTY user passes regardless of ownership.
func (a accessResolver) resolveEventAccess(ctx context.Context, eventID, userID int, facultyBypass bool) (*models.Event, *models.User, error) {
	event, err := a.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	user, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if facultyBypass && user.Role == models.RoleFaculty {
		return event, user, nil
	}
	if !CheckEventAccess(event, user) {
		return nil, nil, ErrForbiddenOperation
	}
	return event, user, nil
}

// loadEvent fetches an event together with its coordinator set.
func (a accessResolver) loadEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := a.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	ids, err := a.eventRepo.ListCoordinatorIDs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinators for event %d: %w", eventID, err)
	}
	event.CoordinatorIDs = ids
	return event, nil
}
