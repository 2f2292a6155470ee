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
	ErrEventNotFound           = errors.New("event not found")
	ErrEventInvalidCoordinator = errors.New("invalid coordinator reference")
	ErrEventTeamBoundsCheck    = errors.New("event team size bounds violate schema constraint")
)

const eventColumns = `
	e.id, e.name, e.date, e.description, e.location, e.fees, e.category,
	e.max_participants, e.registration_deadline,
	e.is_team_event, e.min_team_size, e.max_team_size,
	e.is_published, e.sem_control_enabled, e.max_sem, e.department,
	e.form_config, e.main_coordinator_id, e.created_at, e.poster_key,
	(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id) AS registration_count`

type ListEventsFilter struct {
	PublishedOnly bool
	Category      *models.EventCategory
	Department    *models.Department
	// MaxSemAtLeast applies the semester visibility rule: events with
	// sem_control enabled are included only when max_sem >= this value.
	MaxSemAtLeast     *int
	MainCoordinatorID *int
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter ListEventsFilter) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	SetPublished(ctx context.Context, id int, published bool) error
	UpdatePosterKey(ctx context.Context, id int, posterKey *string) error
	Delete(ctx context.Context, id int) error
	AddCoordinator(ctx context.Context, eventID, userID int) error
	ListCoordinatorIDs(ctx context.Context, eventID int) ([]int, error)
	CountPublished(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (
			name, date, description, location, fees, category,
			max_participants, registration_deadline,
			is_team_event, min_team_size, max_team_size,
			is_published, sem_control_enabled, max_sem, department,
			form_config, main_coordinator_id, poster_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		e.Name, e.Date, e.Description, e.Location, e.Fees, e.Category,
		e.MaxParticipants, e.RegistrationDeadline,
		e.IsTeamEvent, e.MinTeamSize, e.MaxTeamSize,
		e.IsPublished, e.SemControlEnabled, e.MaxSem, e.Department,
		e.FormConfig, e.MainCoordinatorID, e.PosterKey,
	).Scan(&e.ID, &e.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = $1`, eventColumns)

	e := &models.Event{}
	err := r.scanEvent(r.db.QueryRowContext(ctx, query, id), e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter ListEventsFilter) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE 1=1`, eventColumns)

	args := []interface{}{}
	argID := 1

	if filter.PublishedOnly {
		query += " AND e.is_published = TRUE"
	}
	if filter.Category != nil {
		query += fmt.Sprintf(" AND e.category = $%d", argID)
		args = append(args, *filter.Category)
		argID++
	}
	if filter.Department != nil {
		query += fmt.Sprintf(" AND e.department = $%d", argID)
		args = append(args, *filter.Department)
		argID++
	}
	if filter.MaxSemAtLeast != nil {
		query += fmt.Sprintf(" AND (e.sem_control_enabled = FALSE OR e.max_sem >= $%d)", argID)
		args = append(args, *filter.MaxSemAtLeast)
		argID++
	}
	if filter.MainCoordinatorID != nil {
		query += fmt.Sprintf(" AND e.main_coordinator_id = $%d", argID)
		args = append(args, *filter.MainCoordinatorID)
		argID++
	}

	query += " ORDER BY e.date ASC NULLS LAST, e.created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if scanErr := r.scanEvent(rows, &e); scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events SET
			name = $1,
			date = $2,
			description = $3,
			location = $4,
			fees = $5,
			category = $6,
			max_participants = $7,
			registration_deadline = $8,
			is_team_event = $9,
			min_team_size = $10,
			max_team_size = $11,
			sem_control_enabled = $12,
			max_sem = $13,
			department = $14,
			form_config = $15
		WHERE id = $16`

	result, err := r.db.ExecContext(ctx, query,
		e.Name, e.Date, e.Description, e.Location, e.Fees, e.Category,
		e.MaxParticipants, e.RegistrationDeadline,
		e.IsTeamEvent, e.MinTeamSize, e.MaxTeamSize,
		e.SemControlEnabled, e.MaxSem, e.Department,
		e.FormConfig,
		e.ID,
	)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) SetPublished(ctx context.Context, id int, published bool) error {
	query := `UPDATE events SET is_published = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, published, id)
	if err != nil {
		return fmt.Errorf("failed to update event publish state: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	query := `UPDATE events SET poster_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, posterKey, id)
	if err != nil {
		return fmt.Errorf("failed to update event poster key: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	// Registrations and coordinator rows go with the event via ON DELETE CASCADE.
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) AddCoordinator(ctx context.Context, eventID, userID int) error {
	// Idempotent union semantics: adding the same coordinator twice is a no-op.
	query := `
		INSERT INTO event_coordinators (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "event_coordinators_event_id_fkey":
				return ErrEventNotFound
			case "event_coordinators_user_id_fkey":
				return ErrEventInvalidCoordinator
			}
		}
		return fmt.Errorf("failed to add event coordinator: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) ListCoordinatorIDs(ctx context.Context, eventID int) ([]int, error) {
	query := `SELECT user_id FROM event_coordinators WHERE event_id = $1 ORDER BY user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event coordinators: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan coordinator row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coordinator rows: %w", err)
	}
	return ids, nil
}

func (r *postgresEventRepository) CountPublished(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE is_published = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count published events: %w", err)
	}
	return count, nil
}

func (r *postgresEventRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (r *postgresEventRepository) scanEvent(rowScanner interface {
	Scan(dest ...interface{}) error
}, e *models.Event) error {
	return rowScanner.Scan(
		&e.ID, &e.Name, &e.Date, &e.Description, &e.Location, &e.Fees, &e.Category,
		&e.MaxParticipants, &e.RegistrationDeadline,
		&e.IsTeamEvent, &e.MinTeamSize, &e.MaxTeamSize,
		&e.IsPublished, &e.SemControlEnabled, &e.MaxSem, &e.Department,
		&e.FormConfig, &e.MainCoordinatorID, &e.CreatedAt, &e.PosterKey,
		&e.RegistrationCount,
	)
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "events_main_coordinator_id_fkey" {
				return ErrEventInvalidCoordinator
			}
		case "23514": // check_violation
			if pqErr.Constraint == "chk_events_team_size" {
				return ErrEventTeamBoundsCheck
			}
		}
	}
	return err
}
