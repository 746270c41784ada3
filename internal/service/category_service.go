package service

import (
	"context"

	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
)

type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns the user's categories with how many tasks use each.
func (s *CategoryService) List(ctx context.Context, user *model.User) ([]repository.CategoryUsage, error) {
	return s.repo.ListUsage(ctx, user.ID)
}
