package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusfest/techfest-system/models"
)

func TestGetDashboardStats(t *testing.T) {
	userRepo := newFakeUserRepo()
	eventRepo := newFakeEventRepo()
	regRepo := newFakeRegistrationRepo()
	service := NewStatsService(eventRepo, userRepo, regRepo)

	userRepo.add(&models.User{ID: 1, Role: models.RoleAdmin})
	userRepo.add(&models.User{ID: 2, Role: models.RoleStudent})
	userRepo.add(&models.User{ID: 3, Role: models.RoleStudent})
	userRepo.add(&models.User{ID: 4, Role: models.RoleFaculty})

	eventRepo.add(&models.Event{ID: 1, IsPublished: true})
	eventRepo.add(&models.Event{ID: 2})

	regRepo.Create(context.Background(), nil, &models.Registration{EventID: 1, StudentID: 2, Type: models.RegistrationOnline})
	regRepo.Create(context.Background(), nil, &models.Registration{EventID: 1, StudentID: 3, Type: models.RegistrationManual})

	stats, err := service.GetDashboardStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvents != 2 || stats.PublishedEvents != 1 {
		t.Fatalf("event counts wrong: %+v", stats)
	}
	if stats.TotalStudents != 2 {
		t.Fatalf("expected 2 students, got %d", stats.TotalStudents)
	}
	if stats.OnlineRegistrations != 1 || stats.ManualRegistrations != 1 {
		t.Fatalf("registration counts wrong: %+v", stats)
	}
}

func TestGetDashboardStatsAdminOnly(t *testing.T) {
	userRepo := newFakeUserRepo()
	service := NewStatsService(newFakeEventRepo(), userRepo, newFakeRegistrationRepo())
	userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})

	if _, err := service.GetDashboardStats(context.Background(), 1); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("expected ErrForbiddenOperation for faculty, got %v", err)
	}
	if _, err := service.GetDashboardStats(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
