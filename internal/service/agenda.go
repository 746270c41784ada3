package service

import (
	"context"
	"sort"
	"time"

	"habit-streaks/internal/repository"
	"habit-streaks/internal/schedule"
)

// AgendaItem is one pending occurrence with the task details list views show.
type AgendaItem struct {
	OccurrenceID uint
	TaskID       uint
	Frequency    schedule.Weekday
	DueAt        time.Time
	Version      int
	Title        string
	Streak       int
	Category     string
	// Current is set on the occurrence of each task that can be completed right now.
	Current bool
}

// DueDateGroup holds the items due on one calendar date.
type DueDateGroup struct {
	Date  time.Time
	Items []AgendaItem
}

// Key formats the group date as YYYY-MM-DD.
func (g DueDateGroup) Key() string {
	return g.Date.Format("2006-01-02")
}

// TaskAggregator groups a user's occurrences by due date. It never writes.
type TaskAggregator struct {
	repo *repository.TaskRepository
	loc  *time.Location
}

func NewTaskAggregator(repo *repository.TaskRepository, loc *time.Location) *TaskAggregator {
	if loc == nil {
		loc = time.Local
	}
	return &TaskAggregator{repo: repo, loc: loc}
}

// ListByDueDate returns the user's occurrences grouped by date, earliest date first.
func (a *TaskAggregator) ListByDueDate(ctx context.Context, userID uint) ([]DueDateGroup, error) {
	rows, err := a.repo.ListAgenda(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DueAt.Equal(rows[j].DueAt) {
			return rows[i].DueAt.Before(rows[j].DueAt)
		}
		return rows[i].OccurrenceID < rows[j].OccurrenceID
	})

	// After sorting, the first row seen for a task is its current occurrence.
	currentSeen := make(map[uint]bool)
	byDate := make(map[string]*DueDateGroup)
	var groups []*DueDateGroup

	for _, row := range rows {
		due := row.DueAt.In(a.loc)
		item := AgendaItem{
			OccurrenceID: row.OccurrenceID,
			TaskID:       row.TaskID,
			Frequency:    row.Frequency,
			DueAt:        due,
			Version:      row.Version,
			Title:        row.Title,
			Streak:       row.Streak,
			Current:      !currentSeen[row.TaskID],
		}
		currentSeen[row.TaskID] = true
		if row.CategoryName != nil {
			item.Category = *row.CategoryName
		}

		day := schedule.StartOfDay(due)
		key := day.Format("2006-01-02")
		group, ok := byDate[key]
		if !ok {
			group = &DueDateGroup{Date: day}
			byDate[key] = group
			groups = append(groups, group)
		}
		group.Items = append(group.Items, item)
	}

	result := make([]DueDateGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}
