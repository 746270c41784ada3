package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 9 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduleReport(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)

	_, err := scheduler.ScheduleReport("07:15", time.Hour, func() {})
	assert.NoError(t, err)

	_, err = scheduler.ScheduleReport("", 2*time.Hour, func() {})
	assert.NoError(t, err)

	_, err = scheduler.ScheduleReport("", 0, func() {})
	assert.Error(t, err)

	_, err = scheduler.ScheduleReport("7am", time.Hour, func() {})
	assert.Error(t, err)
}

func TestRescheduleReplacesJob(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)

	id, err := scheduler.ScheduleInterval(time.Hour, func() {})
	require.NoError(t, err)

	next, err := scheduler.Reschedule(id, 2*time.Hour, func() {})
	require.NoError(t, err)
	assert.NotEqual(t, id, next)
	assert.Len(t, scheduler.cron.Entries(), 1)

	same, err := scheduler.Reschedule(next, 0, func() {})
	assert.Error(t, err)
	assert.Equal(t, next, same)
	assert.Len(t, scheduler.cron.Entries(), 1)
}
