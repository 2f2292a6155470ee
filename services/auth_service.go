package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusfest/techfest-system/models"
	"github.com/campusfest/techfest-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	RollNumber *string `json:"roll_number"`
	Branch     *string `json:"branch"`
	Semester   *int    `json:"semester"`
	Phone      *string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates a STUDENT account. Public signup never produces faculty
// or admin roles; those are assigned out of band.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Semester != nil && (*input.Semester < 1 || *input.Semester > 8) {
		return nil, ErrValidationFailed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
		RollNumber:   input.RollNumber,
		Branch:       input.Branch,
		Semester:     input.Semester,
		Phone:        input.Phone,
	}

	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrAuthEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns the account with its password hash
// cleared. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
