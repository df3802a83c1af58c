package status

import "fmt"

// InvalidDateError означает, что dueDate или completedAt не разбирается как календарная дата.
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: empty date", e.Field)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// InvalidRecurrenceError означает неположительный интервал повторения.
type InvalidRecurrenceError struct {
	Field string
	Value int
}

func (e *InvalidRecurrenceError) Error() string {
	return fmt.Sprintf("invalid %s %d: must be positive", e.Field, e.Value)
}

// InvalidMileageError означает отрицательный dueMileage. Ноль допустим.
type InvalidMileageError struct {
	Value int
}

func (e *InvalidMileageError) Error() string {
	return fmt.Sprintf("invalid due mileage %d: must be non-negative", e.Value)
}
