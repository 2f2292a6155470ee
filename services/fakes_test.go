package services

import (
	"context"
	"sort"
	"sync"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
)

// In-memory repository fakes. The exec parameters are ignored; the fake
// transaction runner below invokes the callback with a nil executor.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (f *fakeUserRepo) add(user *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == 0 {
		f.nextID++
		user.ID = f.nextID
	} else if user.ID > f.nextID {
		f.nextID = user.ID
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, exec repositories.SQLExecutor, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, user := range f.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeEventRepo struct {
	mu           sync.Mutex
	nextID       int
	events       map[int]*models.Event
	coordinators map[int][]int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:       make(map[int]*models.Event),
		coordinators: make(map[int][]int),
	}
}

func (f *fakeEventRepo) add(event *models.Event) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == 0 {
		f.nextID++
		event.ID = f.nextID
	} else if event.ID > f.nextID {
		f.nextID = event.ID
	}
	f.events[event.ID] = event
	return event
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter repositories.ListEventsFilter) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, event := range f.events {
		if filter.PublishedOnly && !event.IsPublished {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.Department != nil && event.Department != *filter.Department {
			continue
		}
		if filter.MaxSemAtLeast != nil && event.SemControlEnabled {
			if event.MaxSem == nil || *event.MaxSem < *filter.MaxSemAtLeast {
				continue
			}
		}
		out = append(out, *event)
	}
	// Ordering mirrors the SQL listing: date ascending with undated events
	// last, ties broken by insertion order.
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date, out[j].Date
		if di != nil && dj != nil && !di.Equal(*dj) {
			return di.Before(*dj)
		}
		if (di == nil) != (dj == nil) {
			return di != nil
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventRepo) SetPublished(ctx context.Context, id int, published bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.IsPublished = published
	return nil
}

func (f *fakeEventRepo) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.PosterKey = posterKey
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(f.events, id)
	delete(f.coordinators, id)
	return nil
}

func (f *fakeEventRepo) AddCoordinator(ctx context.Context, eventID, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return repositories.ErrEventNotFound
	}
	for _, id := range f.coordinators[eventID] {
		if id == userID {
			return nil
		}
	}
	f.coordinators[eventID] = append(f.coordinators[eventID], userID)
	return nil
}

func (f *fakeEventRepo) ListCoordinatorIDs(ctx context.Context, eventID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.coordinators[eventID]...), nil
}

func (f *fakeEventRepo) CountPublished(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, event := range f.events {
		if event.IsPublished {
			count++
		}
	}
	return count, nil
}

func (f *fakeEventRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events), nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	nextID int
	regs   map[int]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[int]*models.Registration)}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.regs {
		if existing.EventID == reg.EventID && existing.StudentID == reg.StudentID {
			return repositories.ErrRegistrationConflict
		}
	}
	f.nextID++
	reg.ID = f.nextID
	copied := *reg
	f.regs[reg.ID] = &copied
	return nil
}

func (f *fakeRegistrationRepo) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeRegistrationRepo) FindByEventAndStudent(ctx context.Context, exec repositories.SQLExecutor, eventID, studentID int) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.EventID == eventID && reg.StudentID == studentID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) CountByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, reg := range f.regs {
		if reg.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRegistrationRepo) CountByType(ctx context.Context, regType models.RegistrationType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, reg := range f.regs {
		if reg.Type == regType {
			count++
		}
	}
	return count, nil
}

func (f *fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Registration
	for _, reg := range f.regs {
		if reg.EventID == eventID {
			copied := *reg
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRegistrationRepo) ListByStudent(ctx context.Context, studentID int) ([]*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Registration
	for _, reg := range f.regs {
		if reg.StudentID == studentID {
			copied := *reg
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.regs[id]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(f.regs, id)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []int
}

func (f *fakeNotifier) NotifyRegistrationCount(eventID, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, count)
}

type fakeMailer struct {
	sent          chan string
	confirmations chan string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		sent:          make(chan string, 8),
		confirmations: make(chan string, 8),
	}
}

func (f *fakeMailer) SendAccountCreatedEmail(to, name, password string) error {
	f.sent <- to
	return nil
}

func (f *fakeMailer) SendRegistrationConfirmationEmail(to, name, eventName string) error {
	f.confirmations <- to
	return nil
}
