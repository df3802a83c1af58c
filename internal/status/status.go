// Package status классифицирует напоминания по срочности и вычисляет
// следующее вхождение повторяющихся напоминаний. Пакет не делает I/O и не
// хранит состояния; текущее время всегда передаётся снаружи.
package status

import (
	"fmt"
	"time"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

// Kind - вид статуса. Текст и цвет подбирает вызывающий код.
type Kind int

// Unknown - нулевое значение: статус, возвращаемый вместе с ошибкой.
const (
	Unknown Kind = iota
	Completed
	Overdue
	DueToday
	DueTomorrow
	DueSoon
	Upcoming
)

// SoonWindow - сколько дней вперёд напоминание считается скорым.
const SoonWindow = 7

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Completed:   "completed",
	Overdue:     "overdue",
	DueToday:    "due_today",
	DueTomorrow: "due_tomorrow",
	DueSoon:     "due_soon",
	Upcoming:    "upcoming",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown status kind %q", text)
}

type Status struct {
	Kind         Kind `json:"kind"`
	DaysUntilDue int  `json:"days_until_due"`
}

// Classify вычисляет статус напоминания на момент now.
func Classify(r models.Reminder, now time.Time) (Status, error) {
	if r.IsComplete {
		return Status{Kind: Completed}, nil
	}

	due, err := ParseDate(r.DueDate, now.Location())
	if err != nil {
		return Status{}, err
	}

	days := daysBetween(now, due)
	return Status{Kind: kindFor(days), DaysUntilDue: days}, nil
}

func kindFor(days int) Kind {
	switch {
	case days < 0:
		return Overdue
	case days == 0:
		return DueToday
	case days == 1:
		return DueTomorrow
	case days <= SoonWindow:
		return DueSoon
	default:
		return Upcoming
	}
}
