package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
)

const helpText = `Бот запущен. Команды:
/addcar Название - добавить автомобиль
/cars - список автомобилей, /car ID - выбрать автомобиль, /delcar ID - удалить
/list - напоминания по выбранному автомобилю
/done ID, /undo ID, /delete ID, /edit ID

Для создания напоминания просто напишите:
• '2024-09-01 ОСАГО ежегодно'
• 'завтра заправиться'
• 'замена масла на 17500 км каждые 5000 км'
• 'налог 2024-12-01 каждые 365 дней'`

// Sender - часть tgbotapi.BotAPI, которой пользуется обработчик.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	bot    Sender
	svc    *service.ReminderService
	engine status.Engine
	log    *slog.Logger
}

func New(bot Sender, svc *service.ReminderService, engine status.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{bot: bot, svc: svc, engine: engine, log: log.With("component", "handler")}
}

func (h *Handler) HandleMessage(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	cmd, arg := splitCommand(text)

	switch cmd {
	case "/start", "/help":
		h.reply(chatID, helpText)
	case "/addcar":
		h.addVehicle(ctx, chatID, arg)
	case "/cars":
		h.listVehicles(ctx, chatID)
	case "/car":
		h.selectVehicle(ctx, chatID, arg)
	case "/delcar":
		h.deleteVehicle(ctx, chatID, arg)
	case "/list":
		h.listReminders(ctx, chatID)
	case "/done":
		h.withID(chatID, arg, func(id int64) { h.complete(ctx, chatID, id, true) })
	case "/undo":
		h.withID(chatID, arg, func(id int64) { h.complete(ctx, chatID, id, false) })
	case "/delete":
		h.withID(chatID, arg, func(id int64) { h.delete(ctx, chatID, id) })
	case "/edit":
		h.withID(chatID, arg, func(id int64) { h.startEdit(ctx, chatID, id) })
	case "/cancel":
		ClearAction(chatID)
		h.reply(chatID, "Действие отменено")
	default:
		if state, ok := GetUserState(chatID); ok && state.Action == actionEdit {
			h.applyEdit(ctx, chatID, state.ReminderID, text)
			return
		}
		h.createReminder(ctx, chatID, text)
	}
}

// HandleCallback обрабатывает нажатия inline-кнопок "done:ID" и "del:ID"
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	action, rawID, _ := strings.Cut(cb.Data, ":")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.answer(cb.ID, "Неизвестная команда")
		return
	}

	switch action {
	case "done":
		h.answer(cb.ID, "Готово")
		h.complete(ctx, chatID, id, true)
	case "del":
		h.answer(cb.ID, "Удалено")
		h.delete(ctx, chatID, id)
	default:
		h.answer(cb.ID, "Неизвестная команда")
	}
}

func splitCommand(text string) (cmd, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	cmd, arg, _ = strings.Cut(text, " ")
	// /list@my_bot в группах
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func (h *Handler) withID(chatID int64, arg string, fn func(id int64)) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		h.reply(chatID, "Укажите номер, например: /done 12")
		return
	}
	fn(id)
}

func (h *Handler) addVehicle(ctx context.Context, chatID int64, name string) {
	if name == "" {
		h.reply(chatID, "Укажите название: /addcar Skoda Octavia")
		return
	}
	v, err := h.svc.AddVehicle(ctx, models.Vehicle{OwnerID: chatID, Name: name})
	if err != nil {
		h.fail(chatID, "Ошибка сохранения автомобиля", err)
		return
	}
	UpdateUserState(chatID, func(s *UserState) { s.VehicleID = v.ID })
	h.reply(chatID, fmt.Sprintf("Автомобиль добавлен и выбран: %s", formatVehicle(v, true)))
}

func (h *Handler) listVehicles(ctx context.Context, chatID int64) {
	list, err := h.svc.Vehicles(ctx, chatID)
	if err != nil {
		h.fail(chatID, "Ошибка получения списка автомобилей", err)
		return
	}
	if len(list) == 0 {
		h.reply(chatID, "Автомобилей нет. Добавьте: /addcar Название")
		return
	}
	state, _ := GetUserState(chatID)
	lines := make([]string, len(list))
	for i, v := range list {
		lines[i] = formatVehicle(v, v.ID == state.VehicleID)
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) selectVehicle(ctx context.Context, chatID int64, arg string) {
	h.withID(chatID, arg, func(id int64) {
		v, err := h.svc.Vehicle(ctx, chatID, id)
		if err != nil {
			h.fail(chatID, "Автомобиль не найден", err)
			return
		}
		UpdateUserState(chatID, func(s *UserState) { s.VehicleID = v.ID })
		h.reply(chatID, "Выбран автомобиль "+formatVehicle(v, true))
	})
}

func (h *Handler) deleteVehicle(ctx context.Context, chatID int64, arg string) {
	h.withID(chatID, arg, func(id int64) {
		if err := h.svc.DeleteVehicle(ctx, chatID, id); err != nil {
			h.fail(chatID, "Автомобиль не найден", err)
			return
		}
		UpdateUserState(chatID, func(s *UserState) {
			if s.VehicleID == id {
				s.VehicleID = 0
			}
		})
		h.reply(chatID, fmt.Sprintf("Автомобиль #%d удалён вместе с напоминаниями", id))
	})
}

// activeVehicle возвращает выбранный автомобиль; единственный автомобиль
// выбирается автоматически.
func (h *Handler) activeVehicle(ctx context.Context, chatID int64) (int64, error) {
	if state, ok := GetUserState(chatID); ok && state.VehicleID != 0 {
		return state.VehicleID, nil
	}
	list, err := h.svc.Vehicles(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if len(list) == 1 {
		UpdateUserState(chatID, func(s *UserState) { s.VehicleID = list[0].ID })
		return list[0].ID, nil
	}
	return 0, nil
}

func (h *Handler) listReminders(ctx context.Context, chatID int64) {
	vehicleID, err := h.activeVehicle(ctx, chatID)
	if err != nil {
		h.fail(chatID, "Ошибка получения списка напоминаний", err)
		return
	}
	entries, err := h.svc.List(ctx, chatID, vehicleID)
	if err != nil {
		h.fail(chatID, "Ошибка получения списка напоминаний", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatList(entries))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := listKeyboard(entries); ok {
		msg.ReplyMarkup = kb
	}
	h.send(msg)
}

func listKeyboard(entries []service.Entry) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		if e.Reminder.IsComplete {
			continue
		}
		id := strconv.FormatInt(e.Reminder.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ #"+id, "done:"+id),
			tgbotapi.NewInlineKeyboardButtonData("🗑 #"+id, "del:"+id),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (h *Handler) createReminder(ctx context.Context, chatID int64, text string) {
	draft, err := ParseReminder(text, h.engine.Now())
	if err != nil {
		h.reply(chatID, "Не удалось разобрать напоминание. Укажите дату или пробег, например:\n"+
			" - 2024-09-01 ОСАГО ежегодно\n - завтра заправиться\n - замена масла на 17500 км каждые 5000 км")
		return
	}

	vehicleID, err := h.activeVehicle(ctx, chatID)
	if err != nil {
		h.fail(chatID, "Ошибка сохранения напоминания", err)
		return
	}
	if vehicleID == 0 {
		h.reply(chatID, "Сначала добавьте или выберите автомобиль: /addcar, /cars, /car ID")
		return
	}

	r, err := h.svc.Create(ctx, models.Reminder{
		VehicleID:         vehicleID,
		OwnerID:           chatID,
		Title:             draft.Title,
		DueDate:           draft.DueDate,
		DueMileage:        draft.DueMileage,
		Type:              draft.Type,
		RecurringInterval: draft.RecurringInterval,
		RecurringMileage:  draft.RecurringMileage,
	})
	if err != nil {
		h.fail(chatID, "Ошибка сохранения напоминания", err)
		return
	}

	e, err := h.svc.Get(ctx, chatID, r.ID)
	if err != nil {
		h.fail(chatID, "Ошибка сохранения напоминания", err)
		return
	}
	h.replyHTML(chatID, "Установленное напоминание: "+FormatEntry(e))
}

func (h *Handler) complete(ctx context.Context, chatID, id int64, done bool) {
	next, err := h.svc.SetComplete(ctx, chatID, id, done)
	if err != nil {
		h.fail(chatID, "Не удалось изменить напоминание", err)
		return
	}
	switch {
	case !done:
		h.reply(chatID, fmt.Sprintf("Напоминание #%d снова активно", id))
	case next != nil:
		h.replyHTML(chatID, fmt.Sprintf("Напоминание #%d выполнено. Следующее: #%d %s",
			id, next.ID, formatReminder(*next)))
	default:
		h.reply(chatID, fmt.Sprintf("Напоминание #%d выполнено", id))
	}
}

func (h *Handler) delete(ctx context.Context, chatID, id int64) {
	if err := h.svc.Delete(ctx, chatID, id); err != nil {
		h.fail(chatID, "Не удалось удалить напоминание", err)
		return
	}
	h.reply(chatID, fmt.Sprintf("Напоминание #%d удалено", id))
}

func (h *Handler) startEdit(ctx context.Context, chatID, id int64) {
	e, err := h.svc.Get(ctx, chatID, id)
	if err != nil {
		h.fail(chatID, "Не удалось найти напоминание", err)
		return
	}
	UpdateUserState(chatID, func(s *UserState) {
		s.Action = actionEdit
		s.ReminderID = id
	})
	h.replyHTML(chatID, "Редактирование: "+FormatEntry(e)+
		"\nОтправьте новую дату, пробег, повторение и/или название. /cancel - отмена")
}

// applyEdit меняет только те поля, которые удалось найти в тексте
func (h *Handler) applyEdit(ctx context.Context, chatID, id int64, text string) {
	draft, rest := parseFields(text, h.engine.Now())

	var patch service.Patch
	if title := cleanTitle(rest); title != "" {
		patch.Title = &title
	}
	if draft.DueDate != "" {
		patch.DueDate = &draft.DueDate
	}
	patch.DueMileage = draft.DueMileage
	patch.RecurringInterval = draft.RecurringInterval
	patch.RecurringMileage = draft.RecurringMileage

	r, err := h.svc.Update(ctx, chatID, id, patch)
	if err != nil {
		h.fail(chatID, "Не удалось изменить напоминание", err)
		return
	}
	ClearAction(chatID)
	h.replyHTML(chatID, "Напоминание изменено: "+formatReminder(r))
}

func (h *Handler) fail(chatID int64, fallback string, err error) {
	var (
		dateErr    *status.InvalidDateError
		recErr     *status.InvalidRecurrenceError
		mileageErr *status.InvalidMileageError
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.reply(chatID, "Не найдено")
	case errors.As(err, &dateErr):
		h.reply(chatID, "Ошибка формата даты, используйте ГГГГ-ММ-ДД")
	case errors.As(err, &recErr):
		h.reply(chatID, "Интервал повторения должен быть положительным")
	case errors.As(err, &mileageErr):
		h.reply(chatID, "Пробег не может быть отрицательным")
	case errors.Is(err, status.ErrNoDue):
		h.reply(chatID, "Укажите дату или пробег")
	default:
		h.log.Error(fallback, "chat_id", chatID, "error", err)
		h.reply(chatID, fallback)
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) replyHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	h.send(msg)
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("send failed", "chat_id", msg.ChatID, "error", err)
	}
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.log.Warn("callback answer failed", "error", err)
	}
}
