package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
)

type fakeSource struct {
	mu       sync.Mutex
	due      []service.Entry
	err      error
	notified []int64
}

func (f *fakeSource) Due(context.Context) ([]service.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []service.Entry
	for _, e := range f.due {
		if !f.wasNotified(e.Reminder.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSource) wasNotified(id int64) bool {
	for _, n := range f.notified {
		if n == id {
			return true
		}
	}
	return false
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified)
}

func (f *fakeSource) MarkNotified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, id)
	return nil
}

type fakeBot struct {
	sent    []tgbotapi.MessageConfig
	failFor int64
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if msg.ChatID == f.failFor {
		return tgbotapi.Message{}, errors.New("blocked by user")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func entry(id, owner int64, title string, st status.Status) service.Entry {
	return service.Entry{Reminder: models.Reminder{ID: id, OwnerID: owner, Title: title, Type: models.TypeOther}, Status: st}
}

func TestTickSendsOncePerReminder(t *testing.T) {
	src := &fakeSource{due: []service.Entry{
		entry(1, 10, "налог", status.Status{Kind: status.Overdue, DaysUntilDue: -2}),
		entry(2, 20, "ТО", status.Status{Kind: status.DueToday}),
	}}
	bot := &fakeBot{}
	n := New(src, bot, time.Minute, nil)

	assert.Equal(t, 2, n.Tick(context.Background()))
	require.Len(t, bot.sent, 2)
	assert.Equal(t, int64(10), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "налог")
	assert.Contains(t, bot.sent[0].Text, "просрочено на 2 дн.")
	assert.Equal(t, tgbotapi.ModeHTML, bot.sent[1].ParseMode)

	assert.Zero(t, n.Tick(context.Background()))
	assert.Len(t, bot.sent, 2)
}

func TestTickSkipsFailedSends(t *testing.T) {
	src := &fakeSource{due: []service.Entry{
		entry(1, 10, "a", status.Status{Kind: status.DueToday}),
		entry(2, 20, "b", status.Status{Kind: status.DueToday}),
	}}
	bot := &fakeBot{failFor: 10}

	assert.Equal(t, 1, New(src, bot, time.Minute, nil).Tick(context.Background()))
	assert.Equal(t, []int64{2}, src.notified)
}

func TestTickSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("db locked")}
	assert.Zero(t, New(src, &fakeBot{}, time.Minute, nil).Tick(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{due: []service.Entry{entry(1, 10, "a", status.Status{Kind: status.DueToday})}}
	bot := &fakeBot{}
	n := New(src, bot, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsBadInterval(t *testing.T) {
	assert.Error(t, New(&fakeSource{}, &fakeBot{}, 0, nil).Run(context.Background()))
}
