package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusfest/techfest-system/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrRegistrationConflict is raised by the unique constraint on
	// (event_id, student_id), the storage backstop for the duplicate check.
	ErrRegistrationConflict       = errors.New("student is already registered for this event")
	ErrRegistrationEventInvalid   = errors.New("registration event conflict or invalid")
	ErrRegistrationStudentInvalid = errors.New("registration student conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	FindByID(ctx context.Context, id int) (*models.Registration, error)
	FindByEventAndStudent(ctx context.Context, exec SQLExecutor, eventID, studentID int) (*models.Registration, error)
	CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error)
	CountByType(ctx context.Context, regType models.RegistrationType) (int, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error)
	ListByStudent(ctx context.Context, studentID int) ([]*models.Registration, error)
	Delete(ctx context.Context, id int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (event_id, student_id, type, team_name, team_members, form_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		reg.EventID,
		reg.StudentID,
		reg.Type,
		reg.TeamName,
		reg.TeamMembers,
		reg.FormData,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_event_id_student_id_key" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_event_id_fkey":
					return ErrRegistrationEventInvalid
				case "registrations_student_id_fkey":
					return ErrRegistrationStudentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT id, event_id, student_id, type, team_name, team_members, form_data, created_at
		FROM registrations
		WHERE id = $1`
	return r.findOne(ctx, r.db, query, id)
}

func (r *postgresRegistrationRepository) FindByEventAndStudent(ctx context.Context, exec SQLExecutor, eventID, studentID int) (*models.Registration, error) {
	query := `
		SELECT id, event_id, student_id, type, team_name, team_members, form_data, created_at
		FROM registrations
		WHERE event_id = $1 AND student_id = $2`
	return r.findOne(ctx, r.getExecutor(exec), query, eventID, studentID)
}

func (r *postgresRegistrationRepository) CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for event: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountByType(ctx context.Context, regType models.RegistrationType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE type = $1`, regType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations by type: %w", err)
	}
	return count, nil
}

// ListByEvent returns an event's registrations with the student identity
// projection (name, email, roll number, branch, phone) joined in. Password
// fields are never selected.
func (r *postgresRegistrationRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error) {
	query := `
		SELECT
			r.id, r.event_id, r.student_id, r.type, r.team_name, r.team_members, r.form_data, r.created_at,
			u.id, u.name, u.email, u.role, u.roll_number, u.branch, u.semester, u.phone
		FROM registrations r
		JOIN users u ON r.student_id = u.id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by event: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var student models.User
		if scanErr := rows.Scan(
			&reg.ID, &reg.EventID, &reg.StudentID, &reg.Type, &reg.TeamName, &reg.TeamMembers, &reg.FormData, &reg.CreatedAt,
			&student.ID, &student.Name, &student.Email, &student.Role, &student.RollNumber, &student.Branch, &student.Semester, &student.Phone,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		reg.Student = &student
		registrations = append(registrations, &reg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

// ListByStudent returns a student's registrations newest-first, each with an
// embedded event summary.
func (r *postgresRegistrationRepository) ListByStudent(ctx context.Context, studentID int) ([]*models.Registration, error) {
	query := `
		SELECT
			r.id, r.event_id, r.student_id, r.type, r.team_name, r.team_members, r.form_data, r.created_at,
			e.id, e.name, e.date, e.location, e.fees, e.category, e.is_team_event
		FROM registrations r
		JOIN events e ON r.event_id = e.id
		WHERE r.student_id = $1
		ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by student: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var event models.Event
		if scanErr := rows.Scan(
			&reg.ID, &reg.EventID, &reg.StudentID, &reg.Type, &reg.TeamName, &reg.TeamMembers, &reg.FormData, &reg.CreatedAt,
			&event.ID, &event.Name, &event.Date, &event.Location, &event.Fees, &event.Category, &event.IsTeamEvent,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		reg.Event = &event
		registrations = append(registrations, &reg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM registrations WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	err := exec.QueryRowContext(ctx, query, args...).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.StudentID,
		&reg.Type,
		&reg.TeamName,
		&reg.TeamMembers,
		&reg.FormData,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}
