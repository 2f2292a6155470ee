package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusfest/techfest-system/metrics"
	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const manualAccountPasswordLength = 16

// RegistrationPolicy carries the configurable behaviors of the workflow.
type RegistrationPolicy struct {
	// EnforceLimitsOnManual makes manual registration honor the deadline and
	// capacity checks. Off by default: coordinators may backfill attendance
	// after the deadline.
	EnforceLimitsOnManual bool
	// FacultyOverride lets any FACULTY user list registrations and register
	// students manually without holding coordinator rights on the event.
	FacultyOverride bool
}

// CountNotifier receives registration count changes so dependent views can
// treat their cached counts as stale.
type CountNotifier interface {
	NotifyRegistrationCount(eventID, count int)
}

// Mailer delivers registration confirmations and the credentials of
// implicitly created accounts.
type Mailer interface {
	SendAccountCreatedEmail(to, name, password string) error
	SendRegistrationConfirmationEmail(to, name, eventName string) error
}

type SelfRegisterInput struct {
	TeamName    *string           `json:"team_name"`
	TeamMembers []string          `json:"team_members"`
	FormData    map[string]string `json:"form_data"`
}

type ManualRegisterInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	RollNumber *string `json:"roll_number"`
	Phone      *string `json:"phone"`
}

// RegistrationService implements the registration workflow: capacity and
// deadline enforcement, duplicate prevention, team and form validation, and
// manual entry with implicit account creation.
type RegistrationService struct {
	txRunner  repositories.TxRunner
	regRepo   repositories.RegistrationRepository
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	access    accessResolver
	policy    RegistrationPolicy
	notifier  CountNotifier
	mailer    Mailer
	logger    *slog.Logger
}

func NewRegistrationService(
	txRunner repositories.TxRunner,
	regRepo repositories.RegistrationRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	policy RegistrationPolicy,
	notifier CountNotifier,
	mailer Mailer,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		txRunner:  txRunner,
		regRepo:   regRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		access:    accessResolver{eventRepo: eventRepo, userRepo: userRepo},
		policy:    policy,
		notifier:  notifier,
		mailer:    mailer,
		logger:    logger,
	}
}

// RegisterSelf registers the authenticated student for an event. Checks run
// in a fixed order inside one transaction: deadline, capacity, duplicate,
// team shape, then required form fields. The first failing check wins. The
// unique constraint on (event_id, student_id) backstops the duplicate check
// under concurrency.
func (s *RegistrationService) RegisterSelf(ctx context.Context, eventID, studentID int, input SelfRegisterInput) (*models.Registration, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var created *models.Registration
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.checkLimits(ctx, exec, event); err != nil {
			return err
		}
		if err := s.checkDuplicate(ctx, exec, eventID, studentID); err != nil {
			return err
		}

		members, err := NormalizeTeam(event, input.TeamName, input.TeamMembers)
		if err != nil {
			return err
		}
		if err := ValidateFormData(event.FormConfig, input.FormData); err != nil {
			return err
		}

		reg := &models.Registration{
			EventID:     eventID,
			StudentID:   studentID,
			Type:        models.RegistrationOnline,
			TeamName:    input.TeamName,
			TeamMembers: members,
			FormData:    input.FormData,
		}
		if err := s.regRepo.Create(ctx, exec, reg); err != nil {
			return s.mapCreateError(err)
		}
		created = reg
		return nil
	})
	if err != nil {
		metrics.RegistrationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	metrics.RegistrationsCreated.WithLabelValues(string(models.RegistrationOnline)).Inc()
	s.notifyCount(ctx, eventID)
	if s.mailer != nil {
		go s.sendConfirmation(event.Name, studentID)
	}
	return created, nil
}

// sendConfirmation emails a registration confirmation. Fire-and-forget; the
// registration stands whether or not the email goes out.
func (s *RegistrationService) sendConfirmation(eventName string, studentID int) {
	student, err := s.userRepo.GetByID(context.Background(), studentID)
	if err != nil {
		s.logger.Error("failed to load student for confirmation email",
			slog.Int("student_id", studentID), slog.Any("error", err))
		return
	}
	if err := s.mailer.SendRegistrationConfirmationEmail(student.Email, student.Name, eventName); err != nil {
		s.logger.Error("failed to send registration confirmation",
			slog.String("email", student.Email), slog.Any("error", err))
	}
}

// RegisterManual registers a student on their behalf, creating the account
// when no user with the given email exists. Account creation and the
// registration insert share one transaction, so a failed insert never leaves
// an orphaned account behind.
func (s *RegistrationService) RegisterManual(ctx context.Context, eventID, actorID int, input ManualRegisterInput) (*models.Registration, error) {
	event, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, s.policy.FacultyOverride)
	if err != nil {
		return nil, err
	}

	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidationFailed)
	}

	var (
		created      *models.Registration
		createdUser  *models.User
		tempPassword string
	)
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		student, err := s.userRepo.GetByEmail(ctx, exec, input.Email)
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			student, tempPassword, err = s.createStudentAccount(ctx, exec, input)
			if err != nil {
				return err
			}
			createdUser = student
		case err != nil:
			return fmt.Errorf("failed to look up student by email: %w", err)
		}

		if err := s.checkDuplicate(ctx, exec, eventID, student.ID); err != nil {
			return err
		}
		if s.policy.EnforceLimitsOnManual {
			if err := s.checkLimits(ctx, exec, event); err != nil {
				return err
			}
		}

		reg := &models.Registration{
			EventID:   eventID,
			StudentID: student.ID,
			Type:      models.RegistrationManual,
		}
		if err := s.regRepo.Create(ctx, exec, reg); err != nil {
			return s.mapCreateError(err)
		}
		reg.Student = student
		created = reg
		return nil
	})
	if err != nil {
		metrics.RegistrationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	if createdUser != nil && s.mailer != nil {
		// Credentials leave the system out-of-band only.
		go func(email, name, password string) {
			if err := s.mailer.SendAccountCreatedEmail(email, name, password); err != nil {
				s.logger.Error("failed to send account credentials",
					slog.String("email", email), slog.Any("error", err))
			}
		}(createdUser.Email, createdUser.Name, tempPassword)
	}

	metrics.RegistrationsCreated.WithLabelValues(string(models.RegistrationManual)).Inc()
	s.notifyCount(ctx, eventID)
	return created, nil
}

// CancelRegistration deletes a registration. Only the owning student may
// cancel; the deletion is immediate and unconditional.
func (s *RegistrationService) CancelRegistration(ctx context.Context, registrationID, actorID int) error {
	reg, err := s.regRepo.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to find registration %d: %w", registrationID, err)
	}

	if reg.StudentID != actorID {
		return ErrForbiddenOperation
	}

	if err := s.regRepo.Delete(ctx, registrationID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to delete registration %d: %w", registrationID, err)
	}

	metrics.RegistrationsCanceled.Inc()
	s.notifyCount(ctx, reg.EventID)
	return nil
}

// ListByEvent returns all registrations of an event, each with the student
// identity projection. Requires event management rights (or FACULTY when the
// override policy is on).
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID, actorID int) ([]*models.Registration, error) {
	if _, _, err := s.access.resolveEventAccess(ctx, eventID, actorID, s.policy.FacultyOverride); err != nil {
		return nil, err
	}
	regs, err := s.regRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for event %d: %w", eventID, err)
	}
	return regs, nil
}

// ListByStudent returns the student's registrations, newest first, each with
// an embedded event summary.
func (s *RegistrationService) ListByStudent(ctx context.Context, studentID int) ([]*models.Registration, error) {
	regs, err := s.regRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for student %d: %w", studentID, err)
	}
	return regs, nil
}

func (s *RegistrationService) getEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return event, nil
}

// checkLimits enforces the registration deadline and the capacity bound.
// Deadline is checked first; both precede the duplicate check for
// self-registration.
func (s *RegistrationService) checkLimits(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	if event.RegistrationDeadline != nil && time.Now().After(*event.RegistrationDeadline) {
		return ErrDeadlineExpired
	}
	if event.MaxParticipants != nil {
		count, err := s.regRepo.CountByEvent(ctx, exec, event.ID)
		if err != nil {
			return fmt.Errorf("failed to count registrations for event %d: %w", event.ID, err)
		}
		if count >= *event.MaxParticipants {
			return ErrEventFull
		}
	}
	return nil
}

func (s *RegistrationService) checkDuplicate(ctx context.Context, exec repositories.SQLExecutor, eventID, studentID int) error {
	_, err := s.regRepo.FindByEventAndStudent(ctx, exec, eventID, studentID)
	if err == nil {
		return ErrAlreadyRegistered
	}
	if !errors.Is(err, repositories.ErrRegistrationNotFound) {
		return fmt.Errorf("failed to check for existing registration: %w", err)
	}
	return nil
}

func (s *RegistrationService) createStudentAccount(ctx context.Context, exec repositories.SQLExecutor, input ManualRegisterInput) (*models.User, string, error) {
	password, err := generateRandomPassword(manualAccountPasswordLength)
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash generated password: %w", err)
	}

	student := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		RollNumber:   input.RollNumber,
		Phone:        input.Phone,
	}
	if err := s.userRepo.Create(ctx, exec, student); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrAuthEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create student account: %w", err)
	}
	return student, password, nil
}

func (s *RegistrationService) mapCreateError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrRegistrationConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrRegistrationEventInvalid):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrRegistrationStudentInvalid):
		return ErrUserNotFound
	}
	return err
}

// notifyCount re-reads the current count and pushes it to live subscribers.
// Best effort: a failed count read only costs the notification.
func (s *RegistrationService) notifyCount(ctx context.Context, eventID int) {
	if s.notifier == nil {
		return
	}
	count, err := s.regRepo.CountByEvent(ctx, nil, eventID)
	if err != nil {
		s.logger.Error("failed to count registrations for live update",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}
	s.notifier.NotifyRegistrationCount(eventID, count)
}

// rejectionReason labels a workflow failure for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDeadlineExpired):
		return "deadline_expired"
	case errors.Is(err, ErrEventFull):
		return "capacity_exceeded"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrTeamNameRequired), errors.Is(err, ErrTeamSizeViolation):
		return "team_size"
	case errors.Is(err, ErrMissingRequiredField):
		return "missing_field"
	case errors.Is(err, ErrForbiddenOperation):
		return "forbidden"
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrValidationFailed):
		return "invalid_input"
	}
	return "internal"
}
