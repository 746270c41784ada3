package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
)

// UserService registers and looks up API users.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Register(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email %q", email)
	}

	user, err := s.repo.Create(ctx, email, strings.TrimSpace(name))
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, validationError("email %q is already registered", email)
	}
	return user, err
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}
