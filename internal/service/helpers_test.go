package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
)

// 2023-10-10 is a Tuesday.
var tuesdayNoon = time.Date(2023, 10, 10, 12, 0, 0, 0, time.UTC)

func endOfDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 23, 59, 59, 999999000, time.UTC)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Set(now time.Time) { c.now = now }

type fixture struct {
	db    *gorm.DB
	repo  *repository.TaskRepository
	users *repository.UserRepository
	tasks *TaskService
	clock *fakeClock
	ctx   context.Context
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := &fakeClock{now: tuesdayNoon}
	repo := repository.NewTaskRepository(db)
	return &fixture{
		db:    db,
		repo:  repo,
		users: repository.NewUserRepository(db),
		tasks: NewTaskService(repo, WithClock(clock.Now), WithLocation(time.UTC)),
		clock: clock,
		ctx:   context.Background(),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := f.users.Create(f.ctx, email, strings.Split(email, "@")[0])
	require.NoError(t, err)
	return user
}

func (f *fixture) task(t *testing.T, user *model.User, title string, frequency ...string) *model.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(f.ctx, user, TaskInput{Title: title, Frequency: frequency})
	require.NoError(t, err)
	return task
}

func (f *fixture) occurrence(t *testing.T, task *model.Task, frequency string) model.Occurrence {
	t.Helper()
	for _, occ := range task.Occurrences {
		if string(occ.Frequency) == frequency {
			return occ
		}
	}
	t.Fatalf("task %d has no %s occurrence", task.ID, frequency)
	return model.Occurrence{}
}

func (f *fixture) count(t *testing.T, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(value).Count(&n).Error)
	return n
}

func assertSameInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}
