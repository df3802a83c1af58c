package status

import (
	"slices"
	"time"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

// SortByUrgency возвращает новый срез: сначала невыполненные, затем
// выполненные; внутри группы по возрастанию dueDate. Сортировка устойчивая,
// пробег в ключ не входит. Напоминания без разбираемой даты идут в конце
// своей группы.
func SortByUrgency(reminders []models.Reminder, now time.Time) []models.Reminder {
	type keyed struct {
		r     models.Reminder
		due   time.Time
		dated bool
	}

	items := make([]keyed, len(reminders))
	for i, r := range reminders {
		due, err := ParseDate(r.DueDate, now.Location())
		items[i] = keyed{r: r, due: due, dated: err == nil}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		if a.r.IsComplete != b.r.IsComplete {
			if a.r.IsComplete {
				return 1
			}
			return -1
		}
		if a.dated != b.dated {
			if a.dated {
				return -1
			}
			return 1
		}
		return a.due.Compare(b.due)
	})

	out := make([]models.Reminder, len(items))
	for i, it := range items {
		out[i] = it.r
	}
	return out
}
