package handler

import (
	"fmt"
	"html"
	"strings"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/service"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
)

// Подписи статусов: только отображение, вся логика в пакете status.
var statusLabels = map[status.Kind]string{
	status.Completed:   "✅ выполнено",
	status.Overdue:     "🔴 просрочено на %d дн.",
	status.DueToday:    "🟠 сегодня",
	status.DueTomorrow: "🟡 завтра",
	status.DueSoon:     "🟡 через %d дн.",
	status.Upcoming:    "🟢 через %d дн.",
}

var typeLabels = map[models.ReminderType]string{
	models.TypeFuel:        "⛽",
	models.TypeMaintenance: "🔧",
	models.TypeInsurance:   "📄",
	models.TypeTax:         "💰",
	models.TypeOther:       "📌",
}

func statusLabel(e service.Entry) string {
	if e.Err != nil {
		if e.Reminder.DueDate == "" && e.Reminder.DueMileage != nil {
			return "📏 по пробегу"
		}
		return "⚠️ неверная дата"
	}
	label := statusLabels[e.Status.Kind]
	if !strings.Contains(label, "%d") {
		return label
	}
	days := e.Status.DaysUntilDue
	if days < 0 {
		days = -days
	}
	return fmt.Sprintf(label, days)
}

func getRepeatLabel(r models.Reminder) string {
	var parts []string
	if r.RecurringInterval != nil {
		parts = append(parts, fmt.Sprintf("каждые %d дн.", *r.RecurringInterval))
	}
	if r.RecurringMileage != nil {
		parts = append(parts, fmt.Sprintf("каждые %d км", *r.RecurringMileage))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(повторяется " + strings.Join(parts, ", ") + ")"
}

func formatReminder(r models.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>", typeLabels[r.Type], html.EscapeString(r.Title))
	if r.DueDate != "" {
		fmt.Fprintf(&b, " · %s", r.DueDate)
	}
	if r.DueMileage != nil {
		fmt.Fprintf(&b, " · %d км", *r.DueMileage)
	}
	if label := getRepeatLabel(r); label != "" {
		b.WriteString(" " + label)
	}
	return b.String()
}

// FormatEntry - строка напоминания со статусом для сообщений в HTML.
func FormatEntry(e service.Entry) string {
	return fmt.Sprintf("#%d %s — %s", e.Reminder.ID, formatReminder(e.Reminder), statusLabel(e))
}

func formatList(entries []service.Entry) string {
	if len(entries) == 0 {
		return "Нет напоминаний"
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = FormatEntry(e)
	}
	return strings.Join(lines, "\n")
}

func formatVehicle(v models.Vehicle, active bool) string {
	mark := ""
	if active {
		mark = " ⭐"
	}
	return fmt.Sprintf("#%d %s%s", v.ID, html.EscapeString(v.Name), mark)
}
