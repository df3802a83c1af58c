package models

// ReminderType классифицирует напоминание; на расчёт статуса не влияет.
type ReminderType string

const (
	TypeFuel        ReminderType = "fuel"
	TypeMaintenance ReminderType = "maintenance"
	TypeInsurance   ReminderType = "insurance"
	TypeTax         ReminderType = "tax"
	TypeOther       ReminderType = "other"
)

// Valid сообщает, входит ли тип в закрытый набор.
func (t ReminderType) Valid() bool {
	switch t {
	case TypeFuel, TypeMaintenance, TypeInsurance, TypeTax, TypeOther:
		return true
	}
	return false
}

type Reminder struct {
	ID          int64        `json:"id"`
	VehicleID   int64        `json:"vehicle_id"`
	OwnerID     int64        `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     string       `json:"due_date,omitempty"` // YYYY-MM-DD
	DueMileage  *int         `json:"due_mileage,omitempty"`
	Type        ReminderType `json:"type"`
	IsComplete  bool         `json:"is_complete"`

	// Интервал повторения в днях и/или километрах. Оба nil - разовое напоминание.
	RecurringInterval *int `json:"recurring_interval,omitempty"`
	RecurringMileage  *int `json:"recurring_mileage,omitempty"`
}

// IsRecurring сообщает, задан ли хотя бы один интервал повторения.
func (r Reminder) IsRecurring() bool {
	return r.RecurringInterval != nil || r.RecurringMileage != nil
}
