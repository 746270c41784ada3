package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-streaks/internal/model"
	"habit-streaks/internal/schedule"
	"habit-streaks/internal/service"
)

const (
	btnSkip             = "⏭️ Пропустить"
	btnConfirm          = "✅ Подтвердить"
	btnCancel           = "↩️ Отмена"
	btnCancelDialog     = "⏪ Отменить ввод"
	btnEveryDay         = "Каждый день"
	btnWorkdays         = "Будни"
	btnWeekend          = "Выходные"
	iconCurrent         = "🔥"
	iconLater           = "🕒"
	iconOverdue         = "⚠️"
	menuLabelNewTask    = "➕ Новая привычка"
	menuLabelTasks      = "📋 Привычки"
	menuLabelCategories = "📂 Категории"
	menuLabelHelp       = "ℹ️ Помощь"
)

var weekdayAliases = map[string]schedule.Weekday{
	"пн": schedule.Mon, "пон": schedule.Mon, "понедельник": schedule.Mon, "monday": schedule.Mon,
	"вт": schedule.Tue, "вторник": schedule.Tue, "tuesday": schedule.Tue,
	"ср": schedule.Wed, "среда": schedule.Wed, "wednesday": schedule.Wed,
	"чт": schedule.Thu, "четверг": schedule.Thu, "thursday": schedule.Thu,
	"пт": schedule.Fri, "пятница": schedule.Fri, "friday": schedule.Fri,
	"сб": schedule.Sat, "суббота": schedule.Sat, "saturday": schedule.Sat,
	"вс": schedule.Sun, "воскресенье": schedule.Sun, "sunday": schedule.Sun,
}

var shortWeekdayNames = map[time.Weekday]string{
	time.Monday:    "пн",
	time.Tuesday:   "вт",
	time.Wednesday: "ср",
	time.Thursday:  "чт",
	time.Friday:    "пт",
	time.Saturday:  "сб",
	time.Sunday:    "вс",
}

// parseWeekdaysInput turns free text like "пн, ср пт" or "будни" into weekday symbols.
// Unknown words are passed through so validation can name them.
func parseWeekdaysInput(text string) []string {
	value := strings.ToLower(strings.TrimSpace(text))
	switch value {
	case strings.ToLower(btnEveryDay), "ежедневно", "daily", "every day":
		return rulesToStrings(schedule.Weekdays())
	case strings.ToLower(btnWorkdays), "weekdays":
		return rulesToStrings(schedule.Weekdays()[:5])
	case strings.ToLower(btnWeekend), "weekend", "weekends":
		return rulesToStrings(schedule.Weekdays()[5:])
	}

	fields := strings.FieldsFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '/'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if w, ok := weekdayAliases[f]; ok {
			out = append(out, w.String())
			continue
		}
		out = append(out, f)
	}
	return out
}

func rulesToStrings(rules []schedule.Weekday) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}

func weekdayLabel(w schedule.Weekday) string {
	if d, ok := w.TimeWeekday(); ok {
		return shortWeekdayNames[d]
	}
	return w.String()
}

func dateLabel(t time.Time) string {
	return fmt.Sprintf("%s, %s", capitalize(shortWeekdayNames[t.Weekday()]), t.Format("02.01.2006"))
}

func escape(s string) string {
	return html.EscapeString(s)
}

func capitalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := capitalize(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "учеба", "учёба":
		icon = "🎓"
	case "работа":
		icon = "💼"
	case "спорт":
		icon = "🏃"
	case "здоровье":
		icon = "🩺"
	case "дом":
		icon = "🏠"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(capitalize(base)))
}

// formatAgenda renders the date-grouped list and the buttons for completable occurrences.
func formatAgenda(groups []service.DueDateGroup, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	builder.WriteString("📋 <b>Твои привычки</b>\n")
	builder.WriteString("Отмечать можно только ближайшее повторение каждой привычки.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groups {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", dateLabel(group.Date)))
		for _, item := range group.Items {
			builder.WriteString(formatAgendaItem(item, now))
			if !item.Current {
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ %s · %s", shortTitle(item.Title, 20), weekdayLabel(item.Frequency)),
					fmt.Sprintf("%s%d:%d", cbCompletePrefix, item.OccurrenceID, item.Version),
				),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, item.TaskID)),
			))
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String()), buttons
}

func formatAgendaItem(item service.AgendaItem, now time.Time) string {
	icon := iconLater
	switch {
	case now.After(item.DueAt):
		icon = iconOverdue
	case item.Current:
		icon = iconCurrent
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s (%s)", icon, item.OccurrenceID, escape(capitalize(item.Title)), weekdayLabel(item.Frequency)))
	if item.Category != "" {
		sb.WriteString(fmt.Sprintf(" · %s", categoryLabel(item.Category)))
	}
	sb.WriteString(fmt.Sprintf("\n   серия %d · задача #%d\n", item.Streak, item.TaskID))
	return sb.String()
}

func formatCreatedTask(task *model.Task, category string) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>Привычка сохранена</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	sb.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(capitalize(task.Title))))
	if category != "" {
		sb.WriteString(fmt.Sprintf("• <b>Категория:</b> %s\n", categoryLabel(category)))
	}
	sb.WriteString("• <b>Расписание:</b>\n")
	for _, occ := range task.Occurrences {
		sb.WriteString(fmt.Sprintf("   %s — до %s\n", weekdayLabel(occ.Frequency), occ.DueAt.Format("02.01.2006")))
	}
	return strings.TrimSpace(sb.String())
}

func formatCompletion(title string, result *service.CompletionResult) string {
	next := fmt.Sprintf("%s, %s", weekdayLabel(result.Occurrence.Frequency), result.Occurrence.DueAt.Format("02.01.2006"))
	if result.Timing == service.Early {
		return fmt.Sprintf("✅ «%s» выполнено вовремя! 🔥 Серия: %d.\nСледующий раз: %s.",
			escape(capitalize(title)), result.Streak, next)
	}
	return fmt.Sprintf("⌛ «%s» выполнено с опозданием, серия начинается заново: %d.\nСледующий раз: %s.",
		escape(capitalize(title)), result.Streak, next)
}

func formatHistory(title string, completions []model.Completion) string {
	if len(completions) == 0 {
		return fmt.Sprintf("У привычки «%s» пока нет выполнений.", escape(capitalize(title)))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 <b>История «%s»</b>\n", escape(capitalize(title))))
	for _, c := range completions {
		sb.WriteString(fmt.Sprintf("• %s\n", c.CompletedAt.Format("02.01.2006 15:04")))
	}
	return strings.TrimSpace(sb.String())
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Здоровье"),
			tgbotapi.NewKeyboardButton("Спорт"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Учеба"),
			tgbotapi.NewKeyboardButton("Дом"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func weekdaysKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnEveryDay),
			tgbotapi.NewKeyboardButton(btnWorkdays),
			tgbotapi.NewKeyboardButton(btnWeekend),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
