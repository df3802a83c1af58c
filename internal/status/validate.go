package status

import (
	"errors"
	"fmt"
	"time"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

// ErrNoDue - у напоминания нет ни даты, ни пробега.
var ErrNoDue = errors.New("reminder needs a due date or a due mileage")

// Validate проверяет напоминание перед сохранением. Ничего не исправляет.
func Validate(r models.Reminder) error {
	if err := validateRecurrence(r); err != nil {
		return err
	}
	if r.DueMileage != nil && *r.DueMileage < 0 {
		return &InvalidMileageError{Value: *r.DueMileage}
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown reminder type %q", r.Type)
	}
	if r.DueDate == "" {
		if r.DueMileage == nil {
			return ErrNoDue
		}
		return nil
	}
	if _, err := ParseDate(r.DueDate, time.UTC); err != nil {
		return err
	}
	return nil
}

func validateRecurrence(r models.Reminder) error {
	if r.RecurringInterval != nil && *r.RecurringInterval <= 0 {
		return &InvalidRecurrenceError{Field: "recurring interval", Value: *r.RecurringInterval}
	}
	if r.RecurringMileage != nil && *r.RecurringMileage <= 0 {
		return &InvalidRecurrenceError{Field: "recurring mileage", Value: *r.RecurringMileage}
	}
	return nil
}
