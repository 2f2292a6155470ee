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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	// Create inserts a user. Pass a non-nil exec to run inside a transaction
	// (manual registration creates the account and the registration atomically).
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users (name, email, password_hash, role, roll_number, branch, semester, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RollNumber,
		user.Branch,
		user.Semester,
		user.Phone,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, roll_number, branch, semester, phone, created_at
		FROM users
		WHERE id = $1`
	return r.scanUser(ctx, r.db, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, roll_number, branch, semester, phone, created_at
		FROM users
		WHERE email = $1`
	return r.scanUser(ctx, r.getExecutor(exec), query, email)
}

func (r *postgresUserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := exec.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.RollNumber,
		&user.Branch,
		&user.Semester,
		&user.Phone,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
