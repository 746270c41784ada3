package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-10-10 is a Tuesday.
var tuesdayNoon = time.Date(2023, 10, 10, 12, 0, 0, 0, time.UTC)

func TestNextDueSameDayIsNextWeek(t *testing.T) {
	due, err := NextDue(Tue, tuesdayNoon, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 17, 23, 59, 59, 999999000, time.UTC), due)
}

func TestNextDueNextDay(t *testing.T) {
	due, err := NextDue(Wed, tuesdayNoon, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 11, 23, 59, 59, 999999000, time.UTC), due)
}

func TestNextDueEarlierWeekdayWrapsForward(t *testing.T) {
	due, err := NextDue(Mon, tuesdayNoon, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 16, 23, 59, 59, 999999000, time.UTC), due)
}

func TestNextDueNeverReturnsToday(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		now := tuesdayNoon.AddDate(0, 0, offset)
		for _, rule := range Weekdays() {
			due, err := NextDue(rule, now, now)
			require.NoError(t, err)

			days := StartOfDay(due).Sub(StartOfDay(now)).Hours() / 24
			assert.GreaterOrEqual(t, days, 1.0, "rule %s on %s", rule, now.Weekday())
			assert.LessOrEqual(t, days, 7.0, "rule %s on %s", rule, now.Weekday())

			wd, _ := rule.TimeWeekday()
			assert.Equal(t, wd, due.Weekday())
			if wd == now.Weekday() {
				assert.Equal(t, 7.0, days)
			}
		}
	}
}

func TestNextDueCatchesUpStaleReference(t *testing.T) {
	stale := time.Date(2023, 8, 1, 23, 59, 59, 999999000, time.UTC)

	due, err := NextDue(Wed, stale, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 11, 23, 59, 59, 999999000, time.UTC), due)
}

func TestNextDueFutureReferenceAnchorsSearch(t *testing.T) {
	// Reference is next Tuesday's end of day; a Tuesday rule moves one week past it.
	reference := time.Date(2023, 10, 17, 23, 59, 59, 999999000, time.UTC)

	due, err := NextDue(Tue, reference, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 24, 23, 59, 59, 999999000, time.UTC), due)
}

func TestNextDueIsMonotonic(t *testing.T) {
	now := tuesdayNoon
	for _, rule := range Weekdays() {
		due, err := NextDue(rule, now, now)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			next, err := NextDue(rule, due, now)
			require.NoError(t, err)
			assert.True(t, next.After(due), "rule %s step %d", rule, i)
			assert.Equal(t, 7*24*time.Hour, next.Sub(due))
			due = next
		}
	}
}

func TestNextDueUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2023-10-10 20:00 UTC is already Wednesday 06:00 in UTC+10.
	now := time.Date(2023, 10, 10, 20, 0, 0, 0, time.UTC).In(loc)

	due, err := NextDue(Wed, now.UTC(), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 18, 23, 59, 59, 999999000, loc), due)
	assert.Equal(t, loc, due.Location())
}

func TestNextDueRejectsUnknownRule(t *testing.T) {
	_, err := NextDue(Weekday("someday"), tuesdayNoon, tuesdayNoon)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestNextDueFromNowLooksForward(t *testing.T) {
	before := time.Now()
	due, err := NextDueFromNow(Fri, before)
	require.NoError(t, err)
	assert.True(t, due.After(before))
	assert.Equal(t, time.Friday, due.Weekday())
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]string{"mon", " MON ", "wed", "Fri", "wed"})
	require.NoError(t, err)
	assert.Equal(t, []Weekday{Mon, Wed, Fri}, rules)
}

func TestParseRulesIsAllOrNothing(t *testing.T) {
	rules, err := ParseRules([]string{"mon", "funday"})
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.Nil(t, rules)
	assert.Contains(t, err.Error(), `"funday"`)
}

func TestEndOfDay(t *testing.T) {
	assert.Equal(t, time.Date(2023, 10, 10, 23, 59, 59, 999999000, time.UTC), EndOfDay(tuesdayNoon))
	assert.Equal(t, time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC), StartOfDay(tuesdayNoon))
}
