package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardStats struct {
	TotalEvents         int `json:"total_events"`
	PublishedEvents     int `json:"published_events"`
	TotalStudents       int `json:"total_students"`
	OnlineRegistrations int `json:"online_registrations"`
	ManualRegistrations int `json:"manual_registrations"`
}

type StatsService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	regRepo   repositories.RegistrationRepository
}

func NewStatsService(
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	regRepo repositories.RegistrationRepository,
) *StatsService {
	return &StatsService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		regRepo:   regRepo,
	}
}

// GetDashboardStats aggregates platform-wide counters for the admin
// dashboard. The counts are fetched concurrently; any failure aborts the
// whole request.
func (s *StatsService) GetDashboardStats(ctx context.Context, actorID int) (*DashboardStats, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", actorID, err)
	}
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.eventRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}
		stats.TotalEvents = n
		return nil
	})
	g.Go(func() error {
		n, err := s.eventRepo.CountPublished(gctx)
		if err != nil {
			return fmt.Errorf("failed to count published events: %w", err)
		}
		stats.PublishedEvents = n
		return nil
	})
	g.Go(func() error {
		n, err := s.userRepo.CountByRole(gctx, models.RoleStudent)
		if err != nil {
			return fmt.Errorf("failed to count students: %w", err)
		}
		stats.TotalStudents = n
		return nil
	})
	g.Go(func() error {
		n, err := s.regRepo.CountByType(gctx, models.RegistrationOnline)
		if err != nil {
			return fmt.Errorf("failed to count online registrations: %w", err)
		}
		stats.OnlineRegistrations = n
		return nil
	})
	g.Go(func() error {
		n, err := s.regRepo.CountByType(gctx, models.RegistrationManual)
		if err != nil {
			return fmt.Errorf("failed to count manual registrations: %w", err)
		}
		stats.ManualRegistrations = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
