package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameLength       = fmt.Errorf("username must be between %d and %d characters", constants.MinUsernameLength, constants.MaxUsernameLength)
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Password string
	Name     string
	Email    string
}

// Signup creates a new user.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if n := len([]rune(username)); n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return nil, ErrUsernameLength
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	email := strings.TrimSpace(input.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, ErrFailedToCreateUser
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
