package status

import (
	"time"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

// Clock отдаёт текущее время. В тестах подменяется фиксированным.
type Clock func() time.Time

// Engine привязывает функции пакета к часам. Нулевое значение использует
// time.Now.
type Engine struct {
	Clock Clock
}

func (e Engine) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

func (e Engine) Classify(r models.Reminder) (Status, error) {
	return Classify(r, e.Now())
}

func (e Engine) SortByUrgency(reminders []models.Reminder) []models.Reminder {
	return SortByUrgency(reminders, e.Now())
}

func (e Engine) AdvanceOccurrence(r models.Reminder) (*models.Reminder, error) {
	return AdvanceOccurrence(r, e.Now())
}

// Fixed возвращает часы, всегда показывающие t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
