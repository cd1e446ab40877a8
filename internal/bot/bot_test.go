package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly-planner/internal/model"
	"weekly-planner/internal/repository"
	"weekly-planner/internal/service"
)

const ownerID int64 = 4242

type fakeSender struct {
	messages []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	out := make([]string, len(f.messages))
	for i, msg := range f.messages {
		out[i] = msg.Text
	}
	return out
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	if len(f.messages) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return f.messages[len(f.messages)-1]
}

type harness struct {
	bot    *Bot
	sender *fakeSender
	tasks  *service.TaskService
	week   *service.WeekService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	repo := repository.NewTaskRepository(db)
	tasks := service.NewTaskService(repo, zerolog.Nop())
	week := service.NewWeekService(repo)
	sender := &fakeSender{}

	b := newBot(sender, ownerID, tasks, week, zerolog.Nop())
	// Wednesday.
	b.now = func() time.Time { return time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC) }

	return &harness{bot: b, sender: sender, tasks: tasks, week: week}
}

func (h *harness) say(t *testing.T, from int64, text string) {
	t.Helper()
	h.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(from, text)})
}

func (h *harness) press(t *testing.T, data string) {
	t.Helper()
	h.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: ownerID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: ownerID, Type: "private"}},
		Data:    data,
	}})
}

func textMessage(from int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: from, Type: "private"},
		From: &tgbotapi.User{ID: from, FirstName: "Sam"},
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i >= 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func (h *harness) create(t *testing.T, title string, day model.Weekday) uint {
	t.Helper()
	task, err := h.tasks.Create(context.Background(), service.TaskInput{Title: title, Day: day})
	require.NoError(t, err)
	return task.ID
}

func TestAddConversationCreatesTask(t *testing.T) {
	h := newHarness(t)

	h.say(t, ownerID, "/add")
	h.say(t, ownerID, "Buy milk")
	h.say(t, ownerID, "2 litres")
	h.say(t, ownerID, "fri")

	active, err := h.tasks.ListActiveByDay(context.Background(), model.Friday)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Buy milk", active[0].Title)

	content, err := h.tasks.GetContent(context.Background(), active[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "2 litres", content)

	texts := h.sender.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[len(texts)-2], "Task saved")
	assert.Contains(t, h.sender.last().Text, "Friday")
	assert.Contains(t, h.sender.last().Text, "Buy milk")
	assert.False(t, h.bot.hasConversation(ownerID))
}

func TestAddConversationSkipContentAndToday(t *testing.T) {
	h := newHarness(t)

	h.say(t, ownerID, "/add")
	h.say(t, ownerID, "Call mom")
	h.say(t, ownerID, btnSkip)
	h.say(t, ownerID, btnToday)

	active, err := h.tasks.ListActiveByDay(context.Background(), model.Wednesday)
	require.NoError(t, err)
	require.Len(t, active, 1)

	content, err := h.tasks.GetContent(context.Background(), active[0].ID)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestAddConversationRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	h.say(t, ownerID, "/add")
	h.say(t, ownerID, "   ")
	assert.Contains(t, h.sender.last().Text, "cannot be empty")

	h.say(t, ownerID, "Gym")
	h.say(t, ownerID, "-")
	h.say(t, ownerID, "Funday")
	assert.Contains(t, h.sender.last().Text, "Pick a weekday")
	assert.True(t, h.bot.hasConversation(ownerID))

	week, err := h.week.Refresh(context.Background(), h.bot.now())
	require.NoError(t, err)
	assert.Zero(t, week.ActiveCount())
}

func TestStopInputAbandonsConversation(t *testing.T) {
	h := newHarness(t)

	h.say(t, ownerID, "/add")
	h.say(t, ownerID, "Draft")
	h.say(t, ownerID, btnCancelDialog)

	assert.False(t, h.bot.hasConversation(ownerID))
	assert.Contains(t, h.sender.last().Text, "cancelled")
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm", func(t *testing.T) {
		h := newHarness(t)
		id := h.create(t, "Old task", model.Monday)

		h.say(t, ownerID, "/delete 1")
		assert.Contains(t, h.sender.last().Text, "Delete")
		_, err := h.tasks.Get(ctx, id)
		require.NoError(t, err)

		h.say(t, ownerID, btnConfirm)
		_, err = h.tasks.Get(ctx, id)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("cancel", func(t *testing.T) {
		h := newHarness(t)
		id := h.create(t, "Keep me", model.Monday)

		h.say(t, ownerID, "/delete 1")
		h.say(t, ownerID, btnCancel)

		_, err := h.tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, h.sender.last().Text, "Nothing changed")
	})

	t.Run("unknown id", func(t *testing.T) {
		h := newHarness(t)
		h.say(t, ownerID, "/delete 99")
		assert.Contains(t, h.sender.last().Text, "not found")
		_, pending := h.bot.getConfirmation(ownerID)
		assert.False(t, pending)
	})
}

func TestCompleteButtonAsksThenCompletes(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, "Laundry", model.Thursday)

	h.press(t, "complete:1")
	assert.Equal(t, 1, h.sender.requests)
	assert.Contains(t, h.sender.last().Text, "Laundry")

	h.say(t, ownerID, btnConfirm)

	task, err := h.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, task.IsCompleted())
	assert.Contains(t, h.sender.last().Text, "Thursday")
	assert.NotContains(t, h.sender.last().Text, "Laundry")
}

func TestDoneAndReopenCommands(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, "Read book", model.Sunday)

	h.say(t, ownerID, "/done 1")
	assert.Contains(t, h.sender.last().Text, "as completed?")
	task, err := h.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, task.IsCompleted())

	h.say(t, ownerID, btnConfirm)
	task, err = h.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, task.IsCompleted())

	h.say(t, ownerID, "/done 1")
	assert.Contains(t, h.sender.last().Text, "already completed")

	h.say(t, ownerID, "/done 42")
	assert.Contains(t, h.sender.last().Text, "not found")

	h.say(t, ownerID, "/completed")
	assert.Contains(t, h.sender.last().Text, "Read book")

	h.press(t, "reopen:1")
	task, err = h.tasks.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, task.IsCompleted())
	assert.Contains(t, h.sender.last().Text, "Read book")
}

func TestMoveRenameAndEdit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.create(t, "Dentist", model.Monday)

	h.say(t, ownerID, "/move 1 sat")
	task, err := h.tasks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.Saturday, task.Day)

	h.say(t, ownerID, "/move 1 someday")
	assert.Contains(t, h.sender.last().Text, "not a weekday")

	h.say(t, ownerID, "/rename 1 Dentist at 10")
	task, err = h.tasks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dentist at 10", task.Title)

	h.say(t, ownerID, "/rename 1")
	assert.Contains(t, h.sender.last().Text, "Usage")

	h.say(t, ownerID, "/edit 1")
	h.say(t, ownerID, "bring the insurance card")
	content, err := h.tasks.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bring the insurance card", content)
	assert.Contains(t, h.sender.last().Text, "insurance card")

	h.say(t, ownerID, "/show 7")
	assert.Contains(t, h.sender.last().Text, "not found")
}

func TestWeekAndDayViews(t *testing.T) {
	h := newHarness(t)
	h.create(t, "Yoga", model.Wednesday)
	h.create(t, "Market", model.Saturday)

	h.say(t, ownerID, "/week")
	week := h.sender.last()
	assert.Contains(t, week.Text, "Week of May 12")
	assert.Contains(t, week.Text, "Yoga")
	assert.Contains(t, week.Text, "Market")
	markup, ok := week.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, markup.InlineKeyboard, 2)
	assert.Contains(t, week.Text, "2 active")

	h.say(t, ownerID, "/today")
	assert.Contains(t, h.sender.last().Text, "Wednesday")
	assert.Contains(t, h.sender.last().Text, "Yoga")
	assert.NotContains(t, h.sender.last().Text, "Market")

	h.say(t, ownerID, "/day tue")
	assert.Contains(t, h.sender.last().Text, "No tasks planned")

	h.say(t, ownerID, "/day sat")
	assert.Contains(t, h.sender.last().Text, "05/18")
	assert.Contains(t, h.sender.last().Text, "Market")

	h.say(t, ownerID, "/day")
	assert.Contains(t, h.sender.last().Text, "Name a day")
}

func TestIgnoresStrangers(t *testing.T) {
	h := newHarness(t)

	h.say(t, 777, "/add")
	h.say(t, 777, "Sneaky")

	assert.Empty(t, h.sender.messages)
	assert.False(t, h.bot.hasConversation(777))
}

func TestTitlesAreEscaped(t *testing.T) {
	h := newHarness(t)
	h.create(t, "<b>bold</b> & co", model.Monday)

	h.say(t, ownerID, "/day mon")
	assert.Contains(t, h.sender.last().Text, "&lt;b&gt;bold&lt;/b&gt; &amp; co")
}

func TestParseIDArgs(t *testing.T) {
	id, rest, err := parseIDArgs(" #12   Friday night ")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
	assert.Equal(t, "Friday night", rest)

	_, _, err = parseIDArgs("")
	assert.Error(t, err)

	_, _, err = parseIDArgs("abc")
	assert.Error(t, err)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Short", shortTitle("short", 10))
	assert.Equal(t, "Abcd…", shortTitle("abcdefgh", 5))
}
