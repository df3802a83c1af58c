package status

import (
	"time"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

// AdvanceOccurrence строит следующее вхождение повторяющегося напоминания,
// выполненного в completedAt. Для разового напоминания возвращает nil.
//
// Интервал в днях отсчитывается от даты выполнения, пробег - от прежнего
// dueMileage. Пробег автомобиля на момент выполнения нигде не хранится,
// поэтому при повторении только по дням dueMileage у преемника не задан, а
// при повторении только по пробегу не задан dueDate.
func AdvanceOccurrence(r models.Reminder, completedAt time.Time) (*models.Reminder, error) {
	if err := validateRecurrence(r); err != nil {
		return nil, err
	}
	if !r.IsRecurring() {
		return nil, nil
	}
	if completedAt.IsZero() {
		return nil, &InvalidDateError{Field: "completed at"}
	}

	next := models.Reminder{
		VehicleID:         r.VehicleID,
		OwnerID:           r.OwnerID,
		Title:             r.Title,
		Description:       r.Description,
		Type:              r.Type,
		RecurringInterval: cloneInt(r.RecurringInterval),
		RecurringMileage:  cloneInt(r.RecurringMileage),
	}

	if r.RecurringInterval != nil {
		next.DueDate = FormatDate(midnight(completedAt).AddDate(0, 0, *r.RecurringInterval))
	}
	if r.RecurringMileage != nil && r.DueMileage != nil {
		m := *r.DueMileage + *r.RecurringMileage
		next.DueMileage = &m
	}

	return &next, nil
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
