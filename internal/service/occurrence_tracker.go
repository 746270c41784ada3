package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
	"habit-streaks/internal/schedule"
)

// Timing says whether a completion happened before the occurrence's due instant.
type Timing string

const (
	Early Timing = "early"
	Late  Timing = "late"
)

// Outcome describes one successful completion of an occurrence.
type Outcome struct {
	Occurrence    model.Occurrence
	PreviousDueAt time.Time
	Timing        Timing
}

// OccurrenceTracker creates, selects and advances the occurrences of a task.
type OccurrenceTracker struct {
	loc *time.Location
}

func NewOccurrenceTracker(loc *time.Location) *OccurrenceTracker {
	if loc == nil {
		loc = time.Local
	}
	return &OccurrenceTracker{loc: loc}
}

// Build returns one unsaved occurrence per distinct rule, due on the next matching day after now.
// Nothing is returned unless every rule is valid.
func (t *OccurrenceTracker) Build(rules []string, now time.Time) ([]model.Occurrence, error) {
	parsed, err := schedule.ParseRules(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(parsed) == 0 {
		return nil, validationError("frequency is required")
	}

	now = now.In(t.loc)
	occurrences := make([]model.Occurrence, 0, len(parsed))
	for _, rule := range parsed {
		due, err := schedule.NextDue(rule, now, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		occurrences = append(occurrences, model.Occurrence{Frequency: rule, DueAt: due})
	}
	return occurrences, nil
}

// Current returns the task's occurrence with the earliest due date.
func (t *OccurrenceTracker) Current(ctx context.Context, repo *repository.TaskRepository, taskID uint) (*model.Occurrence, error) {
	occurrences, err := repo.ListOccurrences(ctx, taskID)
	if err != nil {
		return nil, err
	}
	current, ok := earliest(occurrences)
	if !ok {
		return nil, fmt.Errorf("occurrences of task %d: %w", taskID, ErrNotFound)
	}
	current.DueAt = current.DueAt.In(t.loc)
	return &current, nil
}

// Advance moves occ to its next due date and stores it.
func (t *OccurrenceTracker) Advance(ctx context.Context, repo *repository.TaskRepository, occ *model.Occurrence, now time.Time) (time.Time, error) {
	next, err := schedule.NextDue(occ.Frequency, occ.DueAt.In(t.loc), now.In(t.loc))
	if err != nil {
		return time.Time{}, err
	}
	if err := repo.AdvanceOccurrence(ctx, occ, next); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return time.Time{}, fmt.Errorf("occurrence %d: %w", occ.ID, ErrStaleOccurrence)
		}
		return time.Time{}, err
	}
	return next, nil
}

// Complete advances the user's occurrence if it is the current one of its task.
// A non-nil seen pins the version the caller last read; any other stored version is stale.
func (t *OccurrenceTracker) Complete(ctx context.Context, repo *repository.TaskRepository, userID, occurrenceID uint, seen *int, now time.Time) (Outcome, error) {
	occ, err := repo.FindOccurrence(ctx, userID, occurrenceID)
	if err != nil {
		return Outcome{}, notFound(err, fmt.Sprintf("occurrence %d", occurrenceID))
	}
	if seen != nil && occ.Version != *seen {
		return Outcome{}, fmt.Errorf("occurrence %d at version %d, caller saw %d: %w", occ.ID, occ.Version, *seen, ErrStaleOccurrence)
	}

	current, err := t.Current(ctx, repo, occ.TaskID)
	if err != nil {
		return Outcome{}, err
	}
	if current.ID != occ.ID {
		return Outcome{}, fmt.Errorf("occurrence %d, current is %d: %w", occ.ID, current.ID, ErrStaleOccurrence)
	}

	previous := occ.DueAt.In(t.loc)
	timing := Late
	if now.Before(previous) {
		timing = Early
	}

	if _, err := t.Advance(ctx, repo, occ, now); err != nil {
		return Outcome{}, err
	}

	return Outcome{Occurrence: *occ, PreviousDueAt: previous, Timing: timing}, nil
}

// earliest picks the minimum due date, breaking ties by the lower ID.
func earliest(occurrences []model.Occurrence) (model.Occurrence, bool) {
	if len(occurrences) == 0 {
		return model.Occurrence{}, false
	}
	best := occurrences[0]
	for _, occ := range occurrences[1:] {
		if occ.DueAt.Before(best.DueAt) || (occ.DueAt.Equal(best.DueAt) && occ.ID < best.ID) {
			best = occ
		}
	}
	return best, true
}
