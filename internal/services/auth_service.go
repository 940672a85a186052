package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskapp/internal/models"
	"taskapp/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and credential checks. It issues no
// session or token; callers keep the returned identity themselves.
type AuthService struct {
	userRepo   repositories.UserRepository
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, bcryptCost int, logger *slog.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Username          string
	Password          string
	Phone             *string
	ProfileCompleted  bool
	ProfilePictureURL *string
}

// RegisterUser creates a user with a bcrypt-hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is longer than 72 bytes", ErrValidation)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:          username,
		PasswordHash:      string(hashedPassword),
		Phone:             in.Phone,
		ProfileCompleted:  in.ProfileCompleted,
		ProfilePictureURL: in.ProfilePictureURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// LoginUser checks the credentials and returns the stored user.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Same answer as a bad password: do not reveal which usernames exist.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
