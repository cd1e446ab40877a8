package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"weekly-planner/internal/model"
	"weekly-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageContent
	stageDay
	stageEditContent
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbReopenPrefix   = "reopen:"
)

const (
	btnSkip            = "⏭️ Skip"
	btnConfirm         = "✅ Confirm"
	btnCancel          = "↩️ Cancel"
	btnCancelDialog    = "⏪ Stop input"
	btnToday           = "📌 Today"
	menuLabelNewTask   = "➕ New task"
	menuLabelWeek      = "🗓 Week"
	menuLabelToday     = "📌 Today"
	menuLabelCompleted = "✅ Completed"
	menuLabelHelp      = "ℹ️ Help"
)

type conversationState struct {
	stage  conversationStage
	input  service.TaskInput
	taskID uint
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end of the weekly board.
type Bot struct {
	api           *tgbotapi.BotAPI
	sender        sender
	taskSvc       *service.TaskService
	weekSvc       *service.WeekService
	ownerID       int64
	now           func() time.Time
	log           zerolog.Logger
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

// New connects to Telegram. A zero ownerID accepts any private chat.
func New(token string, ownerID int64, taskSvc *service.TaskService, weekSvc *service.WeekService, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	if ownerID == 0 {
		log.Warn().Msg("TELEGRAM_OWNER_ID is not set, every private chat can edit the board")
	}

	b := newBot(api, ownerID, taskSvc, weekSvc, log)
	b.api = api
	return b, nil
}

func newBot(s sender, ownerID int64, taskSvc *service.TaskService, weekSvc *service.WeekService, log zerolog.Logger) *Bot {
	return &Bot{
		sender:        s,
		taskSvc:       taskSvc,
		weekSvc:       weekSvc,
		ownerID:       ownerID,
		now:           time.Now,
		log:           log,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From == nil || !b.allowed(update.CallbackQuery.From.ID) {
			return
		}
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() || msg.From == nil || !b.allowed(msg.From.ID) {
			return
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			b.log.Error().Err(err).Msg("handle message")
		}
	}
}

func (b *Bot) allowed(userID int64) bool {
	return b.ownerID == 0 || b.ownerID == userID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Debug().Int64("user", msg.From.ID).Str("command", msg.Command()).Msg("command")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /add to plan a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	// A new command abandons whatever was in progress.
	b.clearConfirmation(msg.From.ID)
	if msg.Command() != "cancel" {
		b.clearConversation(msg.From.ID)
	}

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "week":
		return b.sendWeek(ctx, msg.Chat.ID)
	case "today":
		return b.sendDay(ctx, msg.Chat.ID, model.WeekdayOf(b.now()))
	case "day":
		return b.handleDay(ctx, msg)
	case "add", "newtask":
		return b.startNewTaskConversation(msg)
	case "show":
		return b.handleShow(ctx, msg)
	case "edit":
		return b.startEditConversation(ctx, msg)
	case "rename":
		return b.handleRename(ctx, msg)
	case "move":
		return b.handleMove(ctx, msg)
	case "done", "complete":
		return b.handleComplete(ctx, msg)
	case "reopen":
		return b.handleReopen(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "completed":
		return b.sendCompleted(ctx, msg.Chat.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your week on one board.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

const commandList = "• /week - the whole week\n" +
	"• /today - today's tasks\n" +
	"• /day &lt;day&gt; - one day, e.g. /day fri\n" +
	"• /add - plan a task step by step\n" +
	"• /show &lt;id&gt; - task details\n" +
	"• /edit &lt;id&gt; - replace the task text\n" +
	"• /rename &lt;id&gt; &lt;title&gt; - change the title\n" +
	"• /move &lt;id&gt; &lt;day&gt; - move to another day\n" +
	"• /done &lt;id&gt; - mark completed\n" +
	"• /reopen &lt;id&gt; - put a completed task back\n" +
	"• /delete &lt;id&gt; - delete for good\n" +
	"• /completed - completed tasks\n" +
	"• /cancel - stop the current input"

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message) error {
	day, ok := model.ParseWeekday(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Name a day: /day monday")
	}
	return b.sendDay(ctx, msg.Chat.ID, day)
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.log.Debug().Int64("user", msg.From.ID).Msg("start new task conversation")
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) startEditConversation(ctx context.Context, msg *tgbotapi.Message) error {
	id, _, err := parseIDArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /edit 12")
	}

	task, err := b.taskSvc.Get(ctx, id)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	b.setConversation(msg.From.ID, &conversationState{stage: stageEditContent, taskID: task.ID})
	current := "<i>empty</i>"
	if task.Content != "" {
		current = "<pre>" + escape(task.Content) + "</pre>"
	}
	text := fmt.Sprintf("✏️ <b>#%d %s</b>\nCurrent text:\n%s\n\nSend the new text.", task.ID, escape(normalizeTitle(task.Title)), current)
	return b.sendWithReplyMarkup(msg.Chat.ID, text, cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. How should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageContent
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ <b>Step 2:</b> add notes (or press «Skip»).", skipKeyboard())
	case stageContent:
		if !isSkipInput(text) {
			state.input.Content = msg.Text
		}
		state.stage = stageDay
		return b.sendWithReplyMarkup(msg.Chat.ID, "🗓 <b>Step 3:</b> which day?", dayKeyboard())
	case stageDay:
		day, ok := b.parseDayInput(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick a weekday from the keyboard.", dayKeyboard())
		}
		state.input.Day = day
		err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	case stageEditContent:
		err := b.finishContentEdit(ctx, msg.Chat.ID, state.taskID, msg.Text)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /add.")
	}
}

func (b *Bot) parseDayInput(text string) (model.Weekday, bool) {
	if strings.EqualFold(strings.TrimSpace(text), btnToday) || strings.EqualFold(strings.TrimSpace(text), "today") {
		return model.WeekdayOf(b.now()), true
	}
	return model.ParseWeekday(text)
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.Create(ctx, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	summary.WriteString(fmt.Sprintf("• <b>Day:</b> %s\n", task.Day))
	if task.Content != "" {
		summary.WriteString(fmt.Sprintf("• <b>Notes:</b> %s\n", escape(task.Content)))
	}

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, task.Day)
}

func (b *Bot) finishContentEdit(ctx context.Context, chatID int64, taskID uint, content string) error {
	if err := b.taskSvc.UpdateContent(ctx, taskID, content); err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("💾 Text of #%d saved.", taskID)); err != nil {
		return err
	}
	return b.sendTask(ctx, chatID, taskID)
}

func (b *Bot) handleShow(ctx context.Context, msg *tgbotapi.Message) error {
	id, _, err := parseIDArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /show 12")
	}
	return b.sendTask(ctx, msg.Chat.ID, id)
}

func (b *Bot) handleRename(ctx context.Context, msg *tgbotapi.Message) error {
	id, title, err := parseIDArgs(msg.CommandArguments())
	if err != nil || title == "" {
		return b.sendText(msg.Chat.ID, "Usage: /rename 12 New title")
	}

	if err := b.taskSvc.Rename(ctx, id, title); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	task, err := b.taskSvc.Get(ctx, id)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("✏️ #%d is now «%s».", id, escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	if task.IsCompleted() {
		return nil
	}
	return b.sendDay(ctx, msg.Chat.ID, task.Day)
}

func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	id, rest, err := parseIDArgs(msg.CommandArguments())
	if err != nil || rest == "" {
		return b.sendText(msg.Chat.ID, "Usage: /move 12 friday")
	}

	day, ok := b.parseDayInput(rest)
	if !ok {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("«%s» is not a weekday.", escape(rest)))
	}

	task, err := b.taskSvc.Get(ctx, id)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	if err := b.taskSvc.Move(ctx, id, day); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("📦 «%s» moved from %s to %s.", escape(normalizeTitle(task.Title)), task.Day, day)); err != nil {
		return err
	}
	return b.sendDay(ctx, msg.Chat.ID, day)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	id, _, err := parseIDArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /done 12")
	}
	return b.askCompleteConfirmation(ctx, msg.Chat.ID, msg.From.ID, id)
}

func (b *Bot) handleReopen(ctx context.Context, msg *tgbotapi.Message) error {
	id, _, err := parseIDArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /reopen 12")
	}
	return b.reopenTaskAndRefresh(ctx, msg.Chat.ID, id)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, _, err := parseIDArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task id: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From.ID, id)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req.taskID)
		}
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, req.taskID, b.sendTextWithRemove)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "Nothing changed.")
	default:
		prompt := "Confirm or cancel completing the task."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the task."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		b.clearConfirmation(msg.From.ID)
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelWeek):
		return true, b.sendWeek(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelCompleted):
		return true, b.sendCompleted(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	case strings.ToLower(menuLabelToday):
		// The day keyboard reuses this label while a task is being planned.
		if state := b.getConversation(msg.From.ID); state != nil && state.stage == stageDay {
			return false, nil
		}
		return true, b.sendDay(ctx, msg.Chat.ID, model.WeekdayOf(b.now()))
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	if _, err := b.sender.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	b.log.Debug().Int64("user", cb.From.ID).Str("data", data).Msg("callback")

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askCompleteConfirmation(ctx, chatID, cb.From.ID, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, cb.From.ID, taskID)
	case strings.HasPrefix(data, cbReopenPrefix):
		taskID, err := parseTaskID(data, cbReopenPrefix)
		if err != nil {
			return nil
		}
		return b.reopenTaskAndRefresh(ctx, chatID, taskID)
	default:
		return nil
	}
}

func (b *Bot) askCompleteConfirmation(ctx context.Context, chatID, userID int64, taskID uint) error {
	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if task.IsCompleted() {
		return b.sendText(chatID, "This task is already completed.")
	}

	text := fmt.Sprintf("Mark «%s» (#%d) as completed?", escape(normalizeTitle(task.Title)), task.ID)
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: actionComplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, userID int64, taskID uint) error {
	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	text := fmt.Sprintf("Delete «%s» (#%d) for good?", escape(normalizeTitle(task.Title)), task.ID)
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, taskID uint, reply func(int64, string) error) error {
	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return reply(chatID, "Task not found or already deleted.")
		}
		return reply(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if task.IsCompleted() {
		return reply(chatID, "This task is already completed.")
	}

	if err := b.taskSvc.Complete(ctx, taskID); err != nil {
		return reply(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if err := reply(chatID, fmt.Sprintf("✅ «%s» completed.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, task.Day)
}

func (b *Bot) reopenTaskAndRefresh(ctx context.Context, chatID int64, taskID uint) error {
	if err := b.taskSvc.Reopen(ctx, taskID); err != nil {
		return b.replyError(chatID, err)
	}

	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	if err := b.sendText(chatID, fmt.Sprintf("↩️ «%s» is back on %s.", escape(normalizeTitle(task.Title)), task.Day)); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, task.Day)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, taskID uint) error {
	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if err := b.taskSvc.Delete(ctx, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("\U0001F5D1 «%s» deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	if task.IsCompleted() {
		return b.sendCompleted(ctx, chatID)
	}
	return b.sendDay(ctx, chatID, task.Day)
}

func (b *Bot) sendWeek(ctx context.Context, chatID int64) error {
	now := b.now()
	week, err := b.weekSvc.Refresh(ctx, now)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load the week: %s", escape(err.Error())))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, bucket := range week.Days {
		for _, task := range bucket.Tasks {
			buttons = append(buttons, completeRow(task))
		}
	}

	msg := tgbotapi.NewMessage(chatID, formatWeek(week, now))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err = b.sender.Send(msg)
	return err
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, day model.Weekday) error {
	bucket, err := b.taskSvc.Day(ctx, day, b.now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load %s: %s", day, escape(err.Error())))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range bucket.Tasks {
		row := completeRow(task)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("\U0001F5D1", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))
		buttons = append(buttons, row)
	}

	msg := tgbotapi.NewMessage(chatID, formatDay(bucket))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err = b.sender.Send(msg)
	return err
}

func (b *Bot) sendCompleted(ctx context.Context, chatID int64) error {
	week, err := b.weekSvc.Refresh(ctx, b.now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load completed tasks: %s", escape(err.Error())))
	}
	if len(week.Completed) == 0 {
		return b.sendText(chatID, "Nothing completed yet.")
	}

	var builder strings.Builder
	builder.WriteString("✅ <b>Completed</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range week.Completed {
		builder.WriteString(fmt.Sprintf("• <b>#%d</b> %s <i>(%s)</i>\n", task.ID, escape(normalizeTitle(task.Title)), task.Day))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("↩️ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbReopenPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("\U0001F5D1", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.sender.Send(msg)
	return err
}

func (b *Bot) sendTask(ctx context.Context, chatID int64, taskID uint) error {
	task, err := b.taskSvc.Get(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	var row []tgbotapi.InlineKeyboardButton
	if task.IsCompleted() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("↩️ Reopen", fmt.Sprintf("%s%d", cbReopenPrefix, task.ID)))
	} else {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ Done", fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("\U0001F5D1 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))

	msg := tgbotapi.NewMessage(chatID, formatTask(*task))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	_, err = b.sender.Send(msg)
	return err
}

// replyError turns service errors into a chat message.
func (b *Bot) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, model.ErrInvalid):
		return b.sendText(chatID, fmt.Sprintf("⚠️ %s", escape(err.Error())))
	default:
		b.log.Error().Err(err).Msg("task operation failed")
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.sender.Send(msg)
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

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func completeRow(task model.TaskSummary) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
	)
}

func formatWeek(week service.Week, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>Week of %s</b>\n", week.Start.Format("Jan 2")))
	today := week.Today(now).Day
	for _, bucket := range week.Days {
		b.WriteByte('\n')
		marker := ""
		if bucket.Day == today {
			marker = " ⬅️"
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> · %s%s\n", bucket.Day, bucket.Date.Format("01/02"), marker))
		if len(bucket.Tasks) == 0 {
			b.WriteString("   -\n")
			continue
		}
		for _, task := range bucket.Tasks {
			b.WriteString(fmt.Sprintf("   <b>#%d</b> %s\n", task.ID, escape(normalizeTitle(task.Title))))
		}
	}
	b.WriteString(fmt.Sprintf("\n📋 %d active", week.ActiveCount()))
	if n := len(week.Completed); n > 0 {
		b.WriteString(fmt.Sprintf(" · ✅ %d completed · /completed", n))
	}
	return strings.TrimSpace(b.String())
}

func formatDay(bucket service.DayBucket) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📌 <b>%s</b> · %s\n", bucket.Day, bucket.Date.Format("01/02/2006")))
	if len(bucket.Tasks) == 0 {
		b.WriteString("No tasks planned. Add one with /add.")
		return b.String()
	}
	b.WriteString("Tap a button to complete or delete a task.\n\n")
	for _, task := range bucket.Tasks {
		b.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, escape(normalizeTitle(task.Title))))
	}
	return strings.TrimSpace(b.String())
}

func formatTask(task model.Task) string {
	var b strings.Builder
	status := "🟢 active"
	if task.IsCompleted() {
		status = "✅ completed"
	}
	b.WriteString(fmt.Sprintf("<b>#%d %s</b>\n", task.ID, escape(normalizeTitle(task.Title))))
	b.WriteString(fmt.Sprintf("🗓 %s · %s\n", task.Day, status))
	if task.Content != "" {
		b.WriteString(fmt.Sprintf("\n%s", escape(task.Content)))
	}
	return strings.TrimSpace(b.String())
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseIDArgs splits "12 rest of text" into the id and the trimmed rest.
func parseIDArgs(args string) (uint, string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, "", errors.New("missing task id")
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("task id must be a number: %w", err)
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), fields[0]))
	return uint(value), rest, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
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
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCompleted),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dayKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := func(days ...model.Weekday) []tgbotapi.KeyboardButton {
		buttons := make([]tgbotapi.KeyboardButton, len(days))
		for i, day := range days {
			buttons[i] = tgbotapi.NewKeyboardButton(day.String())
		}
		return tgbotapi.NewKeyboardButtonRow(buttons...)
	}

	kb := tgbotapi.NewReplyKeyboard(
		row(model.Sunday, model.Monday, model.Tuesday, model.Wednesday),
		row(model.Thursday, model.Friday, model.Saturday),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToday),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes" || value == "y"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no" || value == "n"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
