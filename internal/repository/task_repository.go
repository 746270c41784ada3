package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-streaks/internal/model"
	"habit-streaks/internal/schedule"
)

// ErrVersionConflict means another transaction advanced the occurrence first.
var ErrVersionConflict = errors.New("occurrence was modified concurrently")

// TaskRepository handles tasks together with their occurrences and completions.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *TaskRepository) Transaction(ctx context.Context, fn func(repo *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

// Categories returns a category repository sharing this repository's connection or transaction.
func (r *TaskRepository) Categories() *CategoryRepository {
	return NewCategoryRepository(r.db)
}

// Create inserts the task and its occurrences in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	for i := range task.Occurrences {
		task.Occurrences[i].DueAt = task.Occurrences[i].DueAt.UTC()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Occurrences", func(db *gorm.DB) *gorm.DB { return db.Order("due_at ASC, id ASC") }).
		Where("user_id = ? AND id = ?", userID, taskID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Rename(ctx context.Context, task *model.Task, title string) error {
	if err := r.db.WithContext(ctx).Model(task).Update("title", title).Error; err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	return nil
}

// Delete removes a task for the given user along with its occurrences and completions.
// It returns gorm.ErrRecordNotFound when the user has no such task.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.Completion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.Occurrence{}).Error; err != nil {
			return fmt.Errorf("delete occurrences: %w", err)
		}
		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// FindOccurrence looks an occurrence up through its task so foreign occurrences are not found.
func (r *TaskRepository) FindOccurrence(ctx context.Context, userID, occurrenceID uint) (*model.Occurrence, error) {
	var occ model.Occurrence
	err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = task_occurrences.task_id").
		Where("task_occurrences.id = ? AND tasks.user_id = ?", occurrenceID, userID).
		First(&occ).Error
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *TaskRepository) ListOccurrences(ctx context.Context, taskID uint) ([]model.Occurrence, error) {
	var occurrences []model.Occurrence
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("due_at ASC, id ASC").
		Find(&occurrences).Error; err != nil {
		return nil, err
	}
	return occurrences, nil
}

// AdvanceOccurrence moves the occurrence to dueAt if nobody changed it since it was read.
func (r *TaskRepository) AdvanceOccurrence(ctx context.Context, occ *model.Occurrence, dueAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Occurrence{}).
		Where("id = ? AND version = ?", occ.ID, occ.Version).
		Updates(map[string]interface{}{
			"due_at":  dueAt.UTC(),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("advance occurrence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	occ.DueAt = dueAt
	occ.Version++
	return nil
}

func (r *TaskRepository) GetStreak(ctx context.Context, taskID uint) (int, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Select("id", "streak").First(&task, taskID).Error; err != nil {
		return 0, err
	}
	return task.Streak, nil
}

func (r *TaskRepository) SetStreak(ctx context.Context, taskID uint, streak int) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("streak", streak).Error; err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

func (r *TaskRepository) AddCompletion(ctx context.Context, taskID uint, completedAt time.Time) (*model.Completion, error) {
	completion := model.Completion{TaskID: taskID, CompletedAt: completedAt.UTC()}
	if err := r.db.WithContext(ctx).Create(&completion).Error; err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}
	return &completion, nil
}

// ListCompletions returns the task's history, newest first.
func (r *TaskRepository) ListCompletions(ctx context.Context, taskID uint) ([]model.Completion, error) {
	var completions []model.Completion
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("completed_at DESC, id DESC").
		Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}

// AgendaRow is one occurrence joined with the task fields list views need.
type AgendaRow struct {
	OccurrenceID uint
	TaskID       uint
	Frequency    schedule.Weekday
	DueAt        time.Time
	Version      int
	Title        string
	Streak       int
	CategoryName *string
}

// ListAgenda returns every occurrence of the user's tasks ordered by due date.
func (r *TaskRepository) ListAgenda(ctx context.Context, userID uint) ([]AgendaRow, error) {
	var rows []AgendaRow
	err := r.db.WithContext(ctx).
		Table("task_occurrences").
		Select("task_occurrences.id AS occurrence_id, task_occurrences.task_id, task_occurrences.frequency, "+
			"task_occurrences.due_at, task_occurrences.version, tasks.title, tasks.streak, categories.name AS category_name").
		Joins("JOIN tasks ON tasks.id = task_occurrences.task_id").
		Joins("LEFT JOIN categories ON categories.id = tasks.category_id").
		Where("tasks.user_id = ?", userID).
		Order("task_occurrences.due_at ASC, task_occurrences.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list agenda: %w", err)
	}
	return rows, nil
}
