package app

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"quizmaster-service/internal/domain"
)

// UserStore persists accounts. Embeds the narrow slice the attempt flow
// uses so one implementation serves both services.
type UserStore interface {
	UserRepository
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	DeleteUser(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// UserService covers registration, login checks, and profile upkeep.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Register creates a regular user account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, user domain.User, password string) (domain.User, error) {
	if _, err := s.users.GetUserByUsername(ctx, user.Username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = string(hash)
	user.Role = domain.RoleUser
	user.Points = 0
	return s.users.CreateUser(ctx, user)
}

// Authenticate verifies credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// UpdateProfile changes name, username, qualification, and date of birth.
// Role, points, and password are not touched here.
func (s *UserService) UpdateProfile(ctx context.Context, user domain.User) error {
	current, err := s.users.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if user.Username != current.Username {
		if other, err := s.users.GetUserByUsername(ctx, user.Username); err == nil && other.ID != user.ID {
			return domain.ErrUsernameTaken
		} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
	}
	current.Username = user.Username
	current.FullName = user.FullName
	current.Qualification = user.Qualification
	current.DOB = user.DOB
	return s.users.UpdateUser(ctx, current)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return err
	}
	return s.users.DeleteUser(ctx, id)
}

// EnsureAdmin seeds the default administrator account on first start.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.users.CreateUser(ctx, domain.User{
		Username: username,
		Password: string(hash),
		FullName: "Quiz Master",
		Role:     domain.RoleAdmin,
	})
	if err == nil {
		log.Printf("seeded default admin %q", username)
	}
	return err
}
