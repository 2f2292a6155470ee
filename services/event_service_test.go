package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/storage"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]bool
	uploads int
	deletes []string
	baseURL string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]bool), baseURL: "https://cdn.test/"}
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = true
	f.uploads++
	return &storage.UploadResult{Key: key, Location: f.baseURL + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return f.baseURL + key
}

type eventEnv struct {
	service   *EventService
	userRepo  *fakeUserRepo
	eventRepo *fakeEventRepo
	uploader  *fakeUploader
}

func newEventEnv() *eventEnv {
	env := &eventEnv{
		userRepo:  newFakeUserRepo(),
		eventRepo: newFakeEventRepo(),
		uploader:  newFakeUploader(),
	}
	env.service = NewEventService(env.eventRepo, env.userRepo, env.uploader, nil)
	return env
}

func validInput() EventInput {
	return EventInput{
		Name:     "Hackathon",
		Category: models.CategoryTech,
	}
}

func TestCreateEventRoleGate(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleStudent})
	env.userRepo.add(&models.User{ID: 2, Role: models.RoleFaculty})

	if _, err := env.service.CreateEvent(context.Background(), 1, validInput()); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("student create: expected ErrForbiddenOperation, got %v", err)
	}

	event, err := env.service.CreateEvent(context.Background(), 2, validInput())
	if err != nil {
		t.Fatalf("faculty create: %v", err)
	}
	if event.MainCoordinatorID != 2 {
		t.Fatalf("creator must become main coordinator, got %d", event.MainCoordinatorID)
	}
	if event.IsPublished {
		t.Fatal("new events must start unpublished")
	}
	if event.Department != models.DepartmentAll {
		t.Fatalf("department must default to ALL, got %s", event.Department)
	}
}

func TestCreateEventValidation(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})

	cases := []struct {
		name    string
		mutate  func(*EventInput)
		wantErr error
	}{
		{"blank name", func(in *EventInput) { in.Name = "  " }, ErrEventNameRequired},
		{"negative fees", func(in *EventInput) { in.Fees = -1 }, ErrEventInvalidFees},
		{"bad category", func(in *EventInput) { in.Category = "KARAOKE" }, ErrEventInvalidCategory},
		{"bad department", func(in *EventInput) { in.Department = "AEROSPACE" }, ErrEventInvalidDepartment},
		{"zero capacity", func(in *EventInput) {
			zero := 0
			in.MaxParticipants = &zero
		}, ErrEventInvalidCapacity},
		{"min above max", func(in *EventInput) {
			in.IsTeamEvent = true
			in.MinTeamSize = 4
			in.MaxTeamSize = 2
		}, ErrEventInvalidTeamBounds},
		{"zero min team size", func(in *EventInput) {
			in.IsTeamEvent = true
			in.MinTeamSize = 0
			in.MaxTeamSize = 2
		}, ErrEventInvalidTeamBounds},
		{"sem control without max sem", func(in *EventInput) { in.SemControlEnabled = true }, ErrEventInvalidMaxSem},
		{"max sem out of range", func(in *EventInput) {
			nine := 9
			in.SemControlEnabled = true
			in.MaxSem = &nine
		}, ErrEventInvalidMaxSem},
		{"max sem without sem control", func(in *EventInput) {
			four := 4
			in.MaxSem = &four
		}, ErrEventInvalidMaxSem},
	}
	for _, tc := range cases {
		input := validInput()
		tc.mutate(&input)
		if _, err := env.service.CreateEvent(context.Background(), 1, input); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestGetEventByIDVisibility(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})
	three := 3
	event := &models.Event{
		ID:                10,
		Name:              "Seniors Only",
		Category:          models.CategoryTech,
		Department:        models.DepartmentAll,
		IsPublished:       true,
		SemControlEnabled: true,
		MaxSem:            &three,
		MainCoordinatorID: 1,
	}
	env.eventRepo.add(event)

	five := 5
	seniorViewer := &models.User{ID: 2, Role: models.RoleStudent, Semester: &five}
	// Event existence must not leak to excluded students.
	if _, err := env.service.GetEventByID(context.Background(), 10, seniorViewer); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("sem 5 viewer on max_sem 3 event: expected ErrEventNotFound, got %v", err)
	}

	two := 2
	juniorViewer := &models.User{ID: 3, Role: models.RoleStudent, Semester: &two}
	if _, err := env.service.GetEventByID(context.Background(), 10, juniorViewer); err != nil {
		t.Fatalf("sem 2 viewer should see the event: %v", err)
	}

	// Anonymous viewers are not semester-filtered.
	if _, err := env.service.GetEventByID(context.Background(), 10, nil); err != nil {
		t.Fatalf("anonymous viewer: %v", err)
	}
}

func TestGetEventByIDUnpublished(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})
	env.eventRepo.add(&models.Event{
		ID:                10,
		Name:              "Draft",
		Category:          models.CategoryTech,
		Department:        models.DepartmentAll,
		IsPublished:       false,
		MainCoordinatorID: 1,
	})

	if _, err := env.service.GetEventByID(context.Background(), 10, nil); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("anonymous on draft: expected ErrEventNotFound, got %v", err)
	}
	student := &models.User{ID: 2, Role: models.RoleStudent}
	if _, err := env.service.GetEventByID(context.Background(), 10, student); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("student on draft: expected ErrEventNotFound, got %v", err)
	}

	// Coordinators and admins still see their drafts.
	owner := &models.User{ID: 1, Role: models.RoleFaculty}
	if _, err := env.service.GetEventByID(context.Background(), 10, owner); err != nil {
		t.Fatalf("owner on draft: %v", err)
	}
	admin := &models.User{ID: 9, Role: models.RoleAdmin}
	if _, err := env.service.GetEventByID(context.Background(), 10, admin); err != nil {
		t.Fatalf("admin on draft: %v", err)
	}
}

func TestListPublicEventsSemesterFilter(t *testing.T) {
	env := newEventEnv()
	three, six := 3, 6
	base := models.Event{
		Category:          models.CategoryTech,
		Department:        models.DepartmentAll,
		IsPublished:       true,
		MainCoordinatorID: 1,
	}
	limited := base
	limited.ID = 1
	limited.SemControlEnabled = true
	limited.MaxSem = &three
	open := base
	open.ID = 2
	open.SemControlEnabled = true
	open.MaxSem = &six
	unrestricted := base
	unrestricted.ID = 3
	draft := base
	draft.ID = 4
	draft.IsPublished = false
	for _, e := range []*models.Event{&limited, &open, &unrestricted, &draft} {
		env.eventRepo.add(e)
	}

	five := 5
	viewer := &models.User{ID: 2, Role: models.RoleStudent, Semester: &five}
	events, err := env.service.ListPublicEvents(context.Background(), viewer, ListEventsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 visible events, got %d", len(events))
	}
	for _, e := range events {
		if e.ID == 1 || e.ID == 4 {
			t.Fatalf("event %d must be hidden from a semester-5 student", e.ID)
		}
	}

	// Anonymous viewers see all published events.
	events, err = env.service.ListPublicEvents(context.Background(), nil, ListEventsInput{})
	if err != nil {
		t.Fatalf("anonymous list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 published events for anonymous viewer, got %d", len(events))
	}
}

func TestListPublicEventsDateOrdering(t *testing.T) {
	env := newEventEnv()
	early := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)
	base := models.Event{
		Category:          models.CategoryTech,
		Department:        models.DepartmentAll,
		IsPublished:       true,
		MainCoordinatorID: 1,
	}
	undated := base
	undated.ID = 1
	later := base
	later.ID = 2
	later.Date = &late
	soonest := base
	soonest.ID = 3
	soonest.Date = &early
	for _, e := range []*models.Event{&undated, &later, &soonest} {
		env.eventRepo.add(e)
	}

	events, err := env.service.ListPublicEvents(context.Background(), nil, ListEventsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// Soonest first, undated events at the end.
	for i, want := range []int{3, 2, 1} {
		if events[i].ID != want {
			t.Fatalf("position %d: expected event %d, got %d", i, want, events[i].ID)
		}
	}
}

func TestTogglePublish(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})
	env.eventRepo.add(&models.Event{ID: 10, Category: models.CategoryTech, Department: models.DepartmentAll, MainCoordinatorID: 1})

	event, err := env.service.TogglePublish(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !event.IsPublished {
		t.Fatal("expected published after first toggle")
	}
	event, err = env.service.TogglePublish(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if event.IsPublished {
		t.Fatal("expected unpublished after second toggle")
	}
}

func TestAddCoordinatorRules(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty, Email: "owner@college.edu"})
	env.userRepo.add(&models.User{ID: 2, Role: models.RoleFaculty, Email: "helper@college.edu"})
	env.userRepo.add(&models.User{ID: 3, Role: models.RoleFaculty, Email: "third@college.edu"})
	env.userRepo.add(&models.User{ID: 9, Role: models.RoleAdmin, Email: "admin@college.edu"})
	env.eventRepo.add(&models.Event{ID: 10, Category: models.CategoryTech, Department: models.DepartmentAll, MainCoordinatorID: 1})

	if err := env.service.AddCoordinator(context.Background(), 10, 1, "helper@college.edu"); err != nil {
		t.Fatalf("main coordinator add: %v", err)
	}

	// Added coordinators cannot add further coordinators.
	if err := env.service.AddCoordinator(context.Background(), 10, 2, "third@college.edu"); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("expected ErrForbiddenOperation for added coordinator, got %v", err)
	}

	if err := env.service.AddCoordinator(context.Background(), 10, 9, "third@college.edu"); err != nil {
		t.Fatalf("admin add: %v", err)
	}

	if err := env.service.AddCoordinator(context.Background(), 10, 1, "nobody@college.edu"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email: expected ErrUserNotFound, got %v", err)
	}

	// Idempotent for repeats.
	if err := env.service.AddCoordinator(context.Background(), 10, 1, "helper@college.edu"); err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	ids, _ := env.eventRepo.ListCoordinatorIDs(context.Background(), 10)
	if len(ids) != 2 {
		t.Fatalf("expected 2 coordinators, got %v", ids)
	}
}

func TestUploadPosterReplacesOld(t *testing.T) {
	env := newEventEnv()
	env.userRepo.add(&models.User{ID: 1, Role: models.RoleFaculty})
	oldKey := "events/10/poster_old"
	env.uploader.objects[oldKey] = true
	env.eventRepo.add(&models.Event{ID: 10, Category: models.CategoryTech, Department: models.DepartmentAll, MainCoordinatorID: 1, PosterKey: &oldKey})

	event, err := env.service.UploadPoster(context.Background(), 10, 1, "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if event.PosterURL == nil || !strings.HasPrefix(*event.PosterURL, "https://cdn.test/events/10/") {
		t.Fatalf("unexpected poster URL: %v", event.PosterURL)
	}
	if len(env.uploader.deletes) != 1 || env.uploader.deletes[0] != oldKey {
		t.Fatalf("expected old poster deleted, got %v", env.uploader.deletes)
	}

	if _, err := env.service.UploadPoster(context.Background(), 10, 1, "application/pdf", strings.NewReader("nope")); !errors.Is(err, ErrUnsupportedPosterType) {
		t.Fatalf("expected ErrUnsupportedPosterType, got %v", err)
	}
}

func TestUploadPosterStorageDisabled(t *testing.T) {
	userRepo := newFakeUserRepo()
	eventRepo := newFakeEventRepo()
	service := NewEventService(eventRepo, userRepo, nil, nil)

	if _, err := service.UploadPoster(context.Background(), 10, 1, "image/png", strings.NewReader("x")); !errors.Is(err, ErrPosterStorageDisabled) {
		t.Fatalf("expected ErrPosterStorageDisabled, got %v", err)
	}
}
