package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"habit-streaks/internal/model"
	"habit-streaks/internal/schedule"
)

const upcomingDays = 7

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	aggregator *TaskAggregator
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{aggregator: tasks.aggregator}
}

// DailySummary lists overdue, due-today and upcoming habits of the user. It does not change anything.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	groups, err := s.aggregator.ListByDueDate(ctx, user.ID)
	if err != nil {
		return "", err
	}

	now = now.In(s.aggregator.loc)
	today := schedule.StartOfDay(now)
	horizon := today.AddDate(0, 0, upcomingDays+1)

	var overdue, dueToday, upcoming []AgendaItem
	for _, group := range groups {
		for _, item := range group.Items {
			switch {
			case now.After(item.DueAt):
				overdue = append(overdue, item)
			case group.Date.Equal(today):
				dueToday = append(dueToday, item)
			case group.Date.Before(horizon):
				upcoming = append(upcoming, item)
			}
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(overdue) > 0 {
		builder.WriteString("⚠️ <b>Просрочено</b>\n")
		for _, item := range overdue {
			builder.WriteString(formatReminder(item, now))
		}
		builder.WriteByte('\n')
	}

	builder.WriteString("🔥 <b>Сегодня</b>\n")
	if len(dueToday) == 0 {
		builder.WriteString("— на сегодня ничего нет\n")
	} else {
		for _, item := range dueToday {
			builder.WriteString(formatReminder(item, now))
		}
	}

	builder.WriteString("\n📅 <b>На неделе</b>\n")
	if len(upcoming) == 0 {
		builder.WriteString("— нет привычек на ближайшие дни\n")
	} else {
		for _, item := range upcoming {
			builder.WriteString(formatReminder(item, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatReminder(item AgendaItem, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(item.Title))))
	if name := strings.TrimSpace(item.Category); name != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
	}

	due := item.DueAt.In(now.Location())
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s (%s)", due.Format("2006-01-02"), item.Frequency))
	if now.After(due) {
		days := int(schedule.StartOfDay(now).Sub(schedule.StartOfDay(due)).Hours() / 24)
		sb.WriteString(fmt.Sprintf(" — <b>просрочено на %d дн.</b>", days))
	}
	sb.WriteString(fmt.Sprintf(" · 🔥 серия %d", item.Streak))

	sb.WriteByte('\n')
	return sb.String()
}
