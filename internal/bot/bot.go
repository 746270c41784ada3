package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"habit-streaks/internal/model"
	"habit-streaks/internal/repository"
	"habit-streaks/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageCategory
	stageWeekdays
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

const msgGone = "Это повторение уже неактуально или не найдено. Обнови список: /tasks"

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	id     uint
	action confirmationAction
	// version pins the occurrence state the user confirmed.
	version int
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	categorySvc   *service.CategoryService
	taskSvc       *service.TaskService
	reminderSvc   *service.ReminderService
	log           *zap.SugaredLogger
	interval      time.Duration
	onInterval    func(time.Duration) error
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

type settings struct {
	endpoint   string
	client     tgbotapi.HTTPClient
	log        *zap.SugaredLogger
	interval   time.Duration
	onInterval func(time.Duration) error
}

// Option configures a Bot.
type Option func(*settings)

// WithEndpoint points the bot at another Bot API server, e.g. a local test double.
func WithEndpoint(endpoint string, client tgbotapi.HTTPClient) Option {
	return func(s *settings) {
		s.endpoint = endpoint
		s.client = client
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *settings) { s.log = log }
}

// WithReportInterval sets the report period shown by /interval and the callback applying a new one.
func WithReportInterval(interval time.Duration, onChange func(time.Duration) error) Option {
	return func(s *settings) {
		s.interval = interval
		s.onInterval = onChange
	}
}

func New(token string, userRepo *repository.UserRepository, categorySvc *service.CategoryService, taskSvc *service.TaskService, reminderSvc *service.ReminderService, opts ...Option) (*Bot, error) {
	s := settings{
		endpoint: tgbotapi.APIEndpoint,
		log:      zap.NewNop().Sugar(),
		interval: 5 * time.Hour,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.client == nil {
		s.client = defaultHTTPClient()
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	s.log.Infow("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		categorySvc:   categorySvc,
		taskSvc:       taskSvc,
		reminderSvc:   reminderSvc,
		log:           s.log,
		interval:      s.interval,
		onInterval:    s.onInterval,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
	return nil
}

// HandleUpdate dispatches one update. Errors are logged, never returned to Telegram.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Errorw("handle callback", "error", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Errorw("handle message", "error", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново через /newtask.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Infow("command", "from", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.log.Debugw("conversation step", "from", msg.From.ID, "stage", state.stage)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить привычку, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "rename":
		return b.handleRename(ctx, msg)
	case "history":
		return b.handleHistory(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "interval":
		return b.handleInterval(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я помогу держать серию привычек по дням недели.</b>\n\n"+
			"Отмечай привычку до конца дня, на который она назначена, и серия растёт. "+
			"Опоздал — серия начинается заново.\n\n"+
			"Начни с /newtask, а все команды есть в /help.",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /newtask — добавить привычку пошагово\n" +
		"• /tasks — привычки по датам, отметка по кнопке\n" +
		"• /complete &lt;id&gt; — отметить повторение по номеру (например, /complete 3)\n" +
		"• /delete &lt;id&gt; — удалить привычку вместе с историей\n" +
		"• /rename &lt;id&gt; &lt;название&gt; — переименовать привычку\n" +
		"• /history &lt;id&gt; — когда привычка выполнялась\n" +
		"• /categories — посмотреть категории\n" +
		"• /interval &lt;часы&gt; — как часто присылать отчёт\n" +
		"• /report — прислать отчёт сейчас\n" +
		"• /cancel — отменить текущий ввод"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user, b.taskSvc.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую привычку.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 <b>Шаг 2:</b> выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageWeekdays
		return b.sendWithReplyMarkup(msg.Chat.ID,
			"📆 <b>Шаг 3:</b> по каким дням? Например: <code>пн ср пт</code> или <code>mon, thu</code>.",
			weekdaysKeyboard())
	case stageWeekdays:
		state.input.Frequency = parseWeekdaysInput(text)
		return b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if errors.Is(err, service.ErrValidation) {
		// Stay on the weekday step so the user can fix the input.
		return b.sendWithReplyMarkup(chatID,
			fmt.Sprintf("Не получилось разобрать дни: %s\nИспользуй пн, вт, ср, чт, пт, сб, вс.", escape(err.Error())),
			weekdaysKeyboard())
	}
	b.clearConversation(from.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить привычку: %s", escape(err.Error())))
	}

	msg := tgbotapi.NewMessage(chatID, formatCreatedTask(task, input.Category))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	groups, err := b.taskSvc.ListByDueDate(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить привычки: %s", escape(err.Error())))
	}
	if len(groups) == 0 {
		return b.sendText(chatID, "У тебя пока нет привычек. Добавь первую через /newtask.")
	}

	text, buttons := formatAgenda(groups, b.taskSvc.Now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	occID, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи номер повторения из /tasks: /complete 12")
	}
	return b.completeAndRefresh(ctx, msg.Chat.ID, msg.From, occID, nil)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID привычки: /delete 12")
	}
	return b.deleteAndRefresh(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleRename(ctx context.Context, msg *tgbotapi.Message) error {
	parts := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return b.sendText(msg.Chat.ID, "Формат: /rename 12 Новое название")
	}
	taskID, err := parseCommandID(parts[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID привычки должен быть числом.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.RenameTask(ctx, user, taskID, parts[1])
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(msg.Chat.ID, "Привычка не найдена.")
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✏️ Привычка #%d теперь называется «%s».", task.ID, escape(capitalize(task.Title))))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID привычки: /history 12")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "Привычка не найдена.")
		}
		return err
	}
	completions, err := b.taskSvc.History(ctx, user, taskID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatHistory(task.Title, completions))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании привычки.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s · привычек: %d\n", categoryLabel(cat.Name), cat.Tasks))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleInterval(msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущий интервал отчётов: %d ч. Укажи число часов, например: /interval 4", int(b.reportInterval().Hours())))
	}
	hours, err := strconv.Atoi(args)
	if err != nil || hours <= 0 {
		return b.sendText(msg.Chat.ID, "Интервал должен быть положительным числом часов, например /interval 6")
	}

	interval := time.Duration(hours) * time.Hour
	if b.onInterval != nil {
		if err := b.onInterval(interval); err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось изменить интервал: %s", escape(err.Error())))
		}
	}
	b.mu.Lock()
	b.interval = interval
	b.mu.Unlock()
	b.log.Infow("report interval changed", "from", msg.From.ID, "hours", hours)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Интервал отчётов обновлён: каждые %d ч.", hours))
}

func (b *Bot) reportInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warnw("callback ack", "error", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		occID, version, err := parseCompleteData(strings.TrimPrefix(data, cbCompletePrefix))
		if err != nil {
			return nil
		}
		return b.askCompleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, occID, version)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseCommandID(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID)
	default:
		return nil
	}
}

// askCompleteConfirmation asks before completing. A button from an outdated list is refused.
func (b *Bot) askCompleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, occID uint, version int) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	item, err := b.findCurrent(ctx, user, occID)
	if err != nil {
		return err
	}
	if item == nil || item.Version != version {
		return b.sendText(chatID, msgGone)
	}

	text := fmt.Sprintf("Отметить «%s» (%s) выполненной?", escape(capitalize(item.Title)), weekdayLabel(item.Frequency))
	b.setConfirmation(from.ID, confirmationRequest{id: occID, action: actionComplete, version: version})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Привычка не найдена.")
		}
		return err
	}

	text := fmt.Sprintf("Удалить привычку «%s» (#%d) вместе с историей?", escape(capitalize(task.Title)), task.ID)
	b.setConfirmation(from.ID, confirmationRequest{id: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteAndRefresh(ctx, msg.Chat.ID, msg.From, req.id)
		}
		return b.completeAndRefresh(ctx, msg.Chat.ID, msg.From, req.id, &req.version)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Главное меню")
	default:
		prompt := "Подтверди или отмени выполнение."
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

// completeAndRefresh completes the occurrence and resends the list. With seen set, the occurrence
// must still be at that version.
func (b *Bot) completeAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, occID uint, seen *int) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	// The agenda is read before completing so the title is known; completion itself re-checks currency.
	item, err := b.findItem(ctx, user, occID)
	if err != nil {
		return err
	}

	var result *service.CompletionResult
	if seen != nil {
		result, err = b.taskSvc.CompleteSeenOccurrence(ctx, user, occID, *seen)
	} else {
		result, err = b.taskSvc.CompleteOccurrence(ctx, user, occID)
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(chatID, msgGone)
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	title := ""
	if item != nil {
		title = item.Title
	}
	if err := b.sendText(chatID, formatCompletion(title, result)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) deleteAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Привычка не найдена или уже удалена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось удалить привычку: %s", escape(err.Error())))
	}

	if err := b.sendText(chatID, fmt.Sprintf("🗑 Привычка «%s» удалена.", escape(capitalize(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// findItem looks the occurrence up in the user's agenda. It returns nil when the user has no such occurrence.
func (b *Bot) findItem(ctx context.Context, user *model.User, occID uint) (*service.AgendaItem, error) {
	groups, err := b.taskSvc.ListByDueDate(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		for i := range group.Items {
			if group.Items[i].OccurrenceID == occID {
				return &group.Items[i], nil
			}
		}
	}
	return nil, nil
}

func (b *Bot) findCurrent(ctx context.Context, user *model.User, occID uint) (*service.AgendaItem, error) {
	item, err := b.findItem(ctx, user, occID)
	if err != nil || item == nil || !item.Current {
		return nil, err
	}
	return item, nil
}

// SendDailyReports sends a summary to every user known through Telegram.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListTelegramUsers(ctx)
	if err != nil {
		return err
	}
	now := b.taskSvc.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			b.log.Errorw("build summary", "user", user.ID, "error", err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.log.Errorw("send summary", "user", user.ID, "error", err)
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

// defaultHTTPClient outlives the 60 second long poll.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 75 * time.Second}
}

// parseCompleteData reads "<occurrence>:<version>" from a complete button.
func parseCompleteData(raw string) (uint, int, error) {
	idPart, versionPart, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid complete data %q", raw)
	}
	id, err := parseCommandID(idPart)
	if err != nil {
		return 0, 0, err
	}
	version, err := strconv.Atoi(versionPart)
	if err != nil || version < 0 {
		return 0, 0, fmt.Errorf("invalid version %q", versionPart)
	}
	return id, version, nil
}

func parseCommandID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(value), nil
}
