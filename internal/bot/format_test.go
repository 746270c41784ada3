package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-streaks/internal/schedule"
	"habit-streaks/internal/service"
)

func TestParseWeekdaysInput(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"mon wed fri", []string{"mon", "wed", "fri"}},
		{"пн, ср; пт", []string{"mon", "wed", "fri"}},
		{"Понедельник/Четверг", []string{"mon", "thu"}},
		{"вс.", []string{"sun"}},
		{"Tuesday", []string{"tue"}},
		{"Будни", []string{"mon", "tue", "wed", "thu", "fri"}},
		{btnWeekend, []string{"sat", "sun"}},
		{"каждый день", []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}},
		{"пн someday", []string{"mon", "someday"}},
		{"   ", []string{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseWeekdaysInput(tc.input), tc.input)
	}
}

func TestParsedWeekdaysPassValidation(t *testing.T) {
	rules, err := schedule.ParseRules(parseWeekdaysInput("ср пн ср"))
	require.NoError(t, err)
	assert.Equal(t, []schedule.Weekday{schedule.Wed, schedule.Mon}, rules)
}

func TestFormatAgendaButtonsOnlyForCurrent(t *testing.T) {
	now := time.Date(2023, 10, 10, 12, 0, 0, 0, time.UTC)
	wed := time.Date(2023, 10, 11, 23, 59, 59, 999999000, time.UTC)
	fri := time.Date(2023, 10, 13, 23, 59, 59, 999999000, time.UTC)

	groups := []service.DueDateGroup{
		{Date: schedule.StartOfDay(wed), Items: []service.AgendaItem{
			{OccurrenceID: 1, TaskID: 7, Frequency: schedule.Wed, DueAt: wed, Version: 4, Title: "gym", Streak: 2, Category: "Спорт", Current: true},
		}},
		{Date: schedule.StartOfDay(fri), Items: []service.AgendaItem{
			{OccurrenceID: 2, TaskID: 7, Frequency: schedule.Fri, DueAt: fri, Title: "gym", Streak: 2, Category: "Спорт"},
		}},
	}

	text, buttons := formatAgenda(groups, now)
	assert.Contains(t, text, "<b>Ср, 11.10.2023</b>")
	assert.Contains(t, text, "<b>Пт, 13.10.2023</b>")
	assert.Contains(t, text, "🔥 <b>#1</b> Gym (ср) · 🏃 Спорт")
	assert.Contains(t, text, "🕒 <b>#2</b> Gym (пт)")
	assert.Contains(t, text, "серия 2 · задача #7")

	require.Len(t, buttons, 1)
	require.Len(t, buttons[0], 2)
	require.NotNil(t, buttons[0][0].CallbackData)
	assert.Equal(t, "complete:1:4", *buttons[0][0].CallbackData)
	assert.Equal(t, "delete:7", *buttons[0][1].CallbackData)
}

func TestFormatAgendaItemOverdue(t *testing.T) {
	due := time.Date(2023, 10, 9, 23, 59, 59, 999999000, time.UTC)
	line := formatAgendaItem(service.AgendaItem{OccurrenceID: 3, Frequency: schedule.Mon, DueAt: due, Title: "<read>", Current: true}, due.Add(time.Hour))
	assert.True(t, strings.HasPrefix(line, iconOverdue))
	assert.Contains(t, line, "&lt;read&gt;")
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Run", shortTitle("run", 10))
	assert.Equal(t, "Morning …", shortTitle("morning stretch", 9))
	assert.Equal(t, "Две строки", shortTitle("две\nстроки", 20))
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "🏃 Спорт", categoryLabel("спорт"))
	assert.Equal(t, "🏷️ Музыка", categoryLabel(" музыка "))
	assert.Equal(t, "🏷️ &lt;b&gt;", categoryLabel("<b>"))
}

func TestConfirmAndCancelInputs(t *testing.T) {
	assert.True(t, isConfirmInput(btnConfirm))
	assert.True(t, isConfirmInput("Да"))
	assert.True(t, isCancelInput("нет"))
	assert.False(t, isCancelInput(btnCancelDialog))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.True(t, isSkipInput("-"))
}
