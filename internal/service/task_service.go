package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"habit-streaks/internal/metrics"
	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title     string
	Category  string
	Frequency []string
}

// Clock returns the current instant. Tests replace it to pin "now".
type Clock func() time.Time

// CompletionResult is what a caller learns after completing an occurrence.
type CompletionResult struct {
	Outcome
	Streak     int
	Completion model.Completion
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo   *repository.TaskRepository
	tracker    *OccurrenceTracker
	streaks    StreakEngine
	aggregator *TaskAggregator
	clock      Clock
	loc        *time.Location
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// Option configures a TaskService.
type Option func(*TaskService)

func WithClock(clock Clock) Option {
	return func(s *TaskService) { s.clock = clock }
}

// WithLocation sets the time zone that decides where a day starts and ends.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskService) { s.loc = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TaskService) { s.metrics = m }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *TaskService) { s.log = log }
}

func NewTaskService(taskRepo *repository.TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		taskRepo: taskRepo,
		clock:    time.Now,
		loc:      time.Local,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = NewOccurrenceTracker(s.loc)
	s.aggregator = NewTaskAggregator(taskRepo, s.loc)
	return s
}

// Now is the service clock in the service location.
func (s *TaskService) Now() time.Time {
	return s.clock().In(s.loc)
}

func (s *TaskService) Location() *time.Location {
	return s.loc
}

// CreateTask validates the input and stores the task with one occurrence per distinct weekday.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}

	occurrences, err := s.tracker.Build(input.Frequency, s.Now())
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:      user.ID,
		Title:       title,
		Occurrences: occurrences,
	}

	err = s.taskRepo.Transaction(ctx, func(repo *repository.TaskRepository) error {
		category, err := repo.Categories().GetOrCreate(ctx, user.ID, input.Category)
		if err != nil {
			return err
		}
		if category != nil {
			task.CategoryID = &category.ID
		}
		return repo.Create(ctx, &task)
	})
	if err != nil {
		return nil, err
	}

	s.localize(task.Occurrences)
	s.metrics.ObserveTaskCreated()
	s.log.Infow("task created", "task", task.ID, "user", user.ID, "occurrences", len(task.Occurrences))
	return &task, nil
}

// ListByDueDate returns the user's occurrences grouped by due date.
func (s *TaskService) ListByDueDate(ctx context.Context, user *model.User) ([]DueDateGroup, error) {
	return s.aggregator.ListByDueDate(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("task %d", taskID))
	}
	s.localize(task.Occurrences)
	return task, nil
}

func (s *TaskService) RenameTask(ctx context.Context, user *model.User, taskID uint, title string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError("title is required")
	}
	task, err := s.GetTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Rename(ctx, task, title); err != nil {
		return nil, err
	}
	task.Title = title
	return task, nil
}

// DeleteTask removes a task with all its occurrences and completions.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	if err := s.taskRepo.Delete(ctx, user.ID, taskID); err != nil {
		return notFound(err, fmt.Sprintf("task %d", taskID))
	}
	s.log.Infow("task deleted", "task", taskID, "user", user.ID)
	return nil
}

// CompleteOccurrence completes the task's current occurrence: it advances the due date,
// updates the streak and records the completion in one transaction.
func (s *TaskService) CompleteOccurrence(ctx context.Context, user *model.User, occurrenceID uint) (*CompletionResult, error) {
	return s.complete(ctx, user, occurrenceID, nil)
}

// CompleteSeenOccurrence is CompleteOccurrence for a caller that read the occurrence at version.
// Once another completion has advanced it, the call fails with ErrStaleOccurrence.
func (s *TaskService) CompleteSeenOccurrence(ctx context.Context, user *model.User, occurrenceID uint, version int) (*CompletionResult, error) {
	return s.complete(ctx, user, occurrenceID, &version)
}

func (s *TaskService) complete(ctx context.Context, user *model.User, occurrenceID uint, seen *int) (*CompletionResult, error) {
	now := s.Now()

	var result CompletionResult
	err := s.taskRepo.Transaction(ctx, func(repo *repository.TaskRepository) error {
		outcome, err := s.tracker.Complete(ctx, repo, user.ID, occurrenceID, seen, now)
		if err != nil {
			return err
		}
		streak, err := s.streaks.Apply(ctx, repo, outcome.Occurrence.TaskID, outcome.Timing)
		if err != nil {
			return err
		}
		completion, err := repo.AddCompletion(ctx, outcome.Occurrence.TaskID, now)
		if err != nil {
			return err
		}
		completion.CompletedAt = completion.CompletedAt.In(s.loc)

		result = CompletionResult{Outcome: outcome, Streak: streak, Completion: *completion}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleOccurrence) {
			s.metrics.ObserveStaleCompletion()
			s.log.Warnw("stale completion rejected", "occurrence", occurrenceID, "user", user.ID, "error", err)
		}
		return nil, err
	}

	s.metrics.ObserveCompletion(string(result.Timing))
	s.log.Infow("occurrence completed",
		"occurrence", occurrenceID,
		"task", result.Occurrence.TaskID,
		"timing", result.Timing,
		"streak", result.Streak,
		"next_due_at", result.Occurrence.DueAt,
	)
	return &result, nil
}

// History lists the completions of the user's task, newest first.
func (s *TaskService) History(ctx context.Context, user *model.User, taskID uint) ([]model.Completion, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, notFound(err, fmt.Sprintf("task %d", taskID))
	}
	completions, err := s.taskRepo.ListCompletions(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for i := range completions {
		completions[i].CompletedAt = completions[i].CompletedAt.In(s.loc)
	}
	return completions, nil
}

func (s *TaskService) localize(occurrences []model.Occurrence) {
	for i := range occurrences {
		occurrences[i].DueAt = occurrences[i].DueAt.In(s.loc)
	}
}
