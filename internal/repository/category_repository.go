package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"habit-streaks/internal/model"
)

// CategoryUsage is a category together with the number of tasks filed under it.
type CategoryUsage struct {
	ID    uint
	Name  string
	Tasks int64
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the user's category with the given name, creating it on first use.
// A blank name means no category and yields nil.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	category := model.Category{UserID: userID, Name: name}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		FirstOrCreate(&category).Error; err != nil {
		return nil, fmt.Errorf("get or create category %q: %w", name, err)
	}
	return &category, nil
}

// ListUsage returns the user's categories by name with their task counts, unused ones included.
func (r *CategoryRepository) ListUsage(ctx context.Context, userID uint) ([]CategoryUsage, error) {
	var usage []CategoryUsage
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.id AS id, categories.name AS name, COUNT(tasks.id) AS tasks").
		Joins("LEFT JOIN tasks ON tasks.category_id = categories.id").
		Where("categories.user_id = ?", userID).
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	return usage, nil
}
