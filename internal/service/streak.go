package service

import (
	"context"
	"fmt"

	"habit-streaks/internal/repository"
)

// StreakEngine applies the streak policy: on time adds one, late starts over at one.
type StreakEngine struct{}

func (StreakEngine) Next(streak int, timing Timing) int {
	if timing == Early {
		return streak + 1
	}
	return 1
}

// Apply updates the stored streak of the task and returns the new value.
func (e StreakEngine) Apply(ctx context.Context, repo *repository.TaskRepository, taskID uint, timing Timing) (int, error) {
	current, err := repo.GetStreak(ctx, taskID)
	if err != nil {
		return 0, notFound(err, fmt.Sprintf("task %d", taskID))
	}
	next := e.Next(current, timing)
	if err := repo.SetStreak(ctx, taskID, next); err != nil {
		return 0, err
	}
	return next, nil
}
