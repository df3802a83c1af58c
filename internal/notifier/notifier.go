// Package notifier периодически рассылает уведомления о просроченных и
// сегодняшних напоминаниях.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rturovtsev/vehicle-reminder/internal/handler"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DueSource реализуется service.ReminderService.
type DueSource interface {
	Due(ctx context.Context) ([]service.Entry, error)
	MarkNotified(ctx context.Context, id int64) error
}

type Notifier struct {
	src      DueSource
	bot      Sender
	interval time.Duration
	log      *slog.Logger
}

func New(src DueSource, bot Sender, interval time.Duration, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{src: src, bot: bot, interval: interval, log: log.With("component", "notifier")}
}

// Run проверяет напоминания сразу и затем раз в interval, пока не отменён ctx.
func (n *Notifier) Run(ctx context.Context) error {
	if n.interval <= 0 {
		return fmt.Errorf("notifier interval must be positive, got %s", n.interval)
	}
	n.log.Info("started", "interval", n.interval)

	n.Tick(ctx)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.log.Info("shutting down")
			return nil
		case <-ticker.C:
			n.Tick(ctx)
		}
	}
}

// Tick отправляет по одному сообщению на каждое напоминание. Напоминание
// отмечается уведомлённым только после успешной отправки.
func (n *Notifier) Tick(ctx context.Context) int {
	due, err := n.src.Due(ctx)
	if err != nil {
		n.log.Error("load due reminders", "error", err)
		return 0
	}

	sent := 0
	for _, e := range due {
		msg := tgbotapi.NewMessage(e.Reminder.OwnerID, "Напоминание: "+handler.FormatEntry(e))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn("send failed", "id", e.Reminder.ID, "chat_id", e.Reminder.OwnerID, "error", err)
			continue
		}
		if err := n.src.MarkNotified(ctx, e.Reminder.ID); err != nil {
			n.log.Error("mark notified", "id", e.Reminder.ID, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		n.log.Debug("notifications sent", "count", sent)
	}
	return sent
}
