package status

import (
	"strings"
	"time"
)

// DateLayout - формат хранения dueDate.
const DateLayout = "2006-01-02"

// ParseDate разбирает dueDate в полночь календарного дня в часовом поясе loc.
// Принимает YYYY-MM-DD и RFC 3339; у метки времени берётся дата в loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, &InvalidDateError{Field: "due date", Value: s}
	}
	if d, err := time.ParseInLocation(DateLayout, v, loc); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &InvalidDateError{Field: "due date", Value: s, Err: err}
	}
	return midnight(ts.In(loc)), nil
}

// FormatDate форматирует календарную дату t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween считает разницу календарных дней to-from. Считаем в UTC,
// чтобы переход на летнее время не давал 23- или 25-часовые сутки.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
