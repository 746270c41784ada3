package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-streaks/internal/model"
	"habit-streaks/internal/schedule"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedTask(t *testing.T, repo *TaskRepository, userID uint, rules ...schedule.Weekday) *model.Task {
	t.Helper()
	due := time.Date(2023, 10, 11, 23, 59, 59, 0, time.UTC)
	task := model.Task{UserID: userID, Title: "gym"}
	for i, rule := range rules {
		task.Occurrences = append(task.Occurrences, model.Occurrence{Frequency: rule, DueAt: due.AddDate(0, 0, i)})
	}
	require.NoError(t, repo.Create(context.Background(), &task))
	return &task
}

func TestAdvanceOccurrenceDetectsConcurrentChange(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))
	task := seedTask(t, repo, 1, schedule.Wed)

	first, err := repo.FindOccurrence(ctx, 1, task.Occurrences[0].ID)
	require.NoError(t, err)
	second := *first

	next := first.DueAt.AddDate(0, 0, 7)
	require.NoError(t, repo.AdvanceOccurrence(ctx, first, next))
	assert.Equal(t, 1, first.Version)

	err = repo.AdvanceOccurrence(ctx, &second, next.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.ListOccurrences(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, next.Equal(stored[0].DueAt))
}

func TestOccurrencePerWeekdayIsUnique(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	task := seedTask(t, repo, 1, schedule.Mon)

	dup := model.Occurrence{TaskID: task.ID, Frequency: schedule.Mon, DueAt: time.Now()}
	assert.Error(t, db.WithContext(ctx).Create(&dup).Error)
}

func TestFindOccurrenceScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))
	task := seedTask(t, repo, 1, schedule.Fri)

	_, err := repo.FindOccurrence(ctx, 2, task.Occurrences[0].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteRemovesEverything(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	task := seedTask(t, repo, 1, schedule.Mon, schedule.Thu)
	_, err := repo.AddCompletion(ctx, task.ID, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, 2, task.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, 1, task.ID))

	for _, table := range []interface{}{&model.Task{}, &model.Occurrence{}, &model.Completion{}} {
		var n int64
		require.NoError(t, db.Model(table).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestListAgendaCarriesCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	category, err := repo.Categories().GetOrCreate(ctx, 1, " Sport ")
	require.NoError(t, err)
	task := model.Task{UserID: 1, Title: "run", CategoryID: &category.ID, Occurrences: []model.Occurrence{
		{Frequency: schedule.Sat, DueAt: time.Date(2023, 10, 14, 23, 59, 59, 0, time.UTC)},
	}}
	require.NoError(t, repo.Create(ctx, &task))
	seedTask(t, repo, 1, schedule.Sun)
	seedTask(t, repo, 2, schedule.Sun)

	rows, err := repo.ListAgenda(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byTitle := map[string]AgendaRow{}
	for _, row := range rows {
		byTitle[row.Title] = row
	}
	require.NotNil(t, byTitle["run"].CategoryName)
	assert.Equal(t, "Sport", *byTitle["run"].CategoryName)
	assert.Nil(t, byTitle["gym"].CategoryName)
}

func TestCategoryGetOrCreateAndUsage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)

	none, err := categories.GetOrCreate(ctx, 1, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	sport, err := categories.GetOrCreate(ctx, 1, "Sport")
	require.NoError(t, err)
	again, err := categories.GetOrCreate(ctx, 1, "Sport")
	require.NoError(t, err)
	assert.Equal(t, sport.ID, again.ID)

	other, err := categories.GetOrCreate(ctx, 2, "Sport")
	require.NoError(t, err)
	assert.NotEqual(t, sport.ID, other.ID)

	_, err = categories.GetOrCreate(ctx, 1, "Home")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		task := model.Task{UserID: 1, Title: fmt.Sprintf("t%d", i), CategoryID: &sport.ID}
		require.NoError(t, tasks.Create(ctx, &task))
	}

	usage, err := categories.ListUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []CategoryUsage{
		{ID: usage[0].ID, Name: "Home", Tasks: 0},
		{ID: sport.ID, Name: "Sport", Tasks: 2},
	}, usage)
}

func TestUpsertFromTelegram(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	first, err := users.UpsertFromTelegram(ctx, 42, "Ann", "Lee", "ann")
	require.NoError(t, err)
	second, err := users.UpsertFromTelegram(ctx, 42, "Ann", "", "ann_l")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	found, err := users.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ann", found.Name)
	assert.Equal(t, "ann_l", found.Username)

	_, err = users.Create(ctx, "api@example.com", "API")
	require.NoError(t, err)
	_, err = users.Create(ctx, "api@example.com", "Again")
	assert.ErrorIs(t, err, ErrEmailTaken)

	listed, err := users.ListTelegramUsers(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID, listed[0].ID)
}

func TestDSNHelpers(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost/db"))
	assert.True(t, isPostgres("postgresql://localhost/db"))
	assert.False(t, isPostgres("streaks.db"))

	dir := t.TempDir()
	nested := filepath.Join(dir, "data", "nested")
	require.NoError(t, ensureDirForSQLite("file:"+filepath.Join(nested, "streaks.db")+"?_fk=1"))
	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ensureDirForSQLite("file::memory:?cache=shared"))
	assert.NoError(t, ensureDirForSQLite("streaks.db"))
}
