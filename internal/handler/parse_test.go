package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

var parseNow = time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)

func TestParseReminder(t *testing.T) {
	d, err := ParseReminder("2024-06-20 замена масла на 17 500 км каждые 5000 км", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "замена масла", d.Title)
	assert.Equal(t, "2024-06-20", d.DueDate)
	require.NotNil(t, d.DueMileage)
	assert.Equal(t, 17500, *d.DueMileage)
	require.NotNil(t, d.RecurringMileage)
	assert.Equal(t, 5000, *d.RecurringMileage)
	assert.Nil(t, d.RecurringInterval)
	assert.Equal(t, models.TypeMaintenance, d.Type)
}

func TestParseReminderRepeatWords(t *testing.T) {
	tests := []struct {
		text  string
		title string
		days  int
		typ   models.ReminderType
	}{
		{"ОСАГО 2024-09-01 ежегодно", "ОСАГО", 365, models.TypeInsurance},
		{"Налог 2024-12-01 каждые 30 дней", "Налог", 30, models.TypeTax},
		{"2024-07-01 мойка ежемесячно", "мойка", 30, models.TypeOther},
		{"2024-07-01 проверить давление Каждую неделю", "проверить давление", 7, models.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, err := ParseReminder(tt.text, parseNow)
			require.NoError(t, err)
			assert.Equal(t, tt.title, d.Title)
			require.NotNil(t, d.RecurringInterval)
			assert.Equal(t, tt.days, *d.RecurringInterval)
			assert.Equal(t, tt.typ, d.Type)
		})
	}
}

// Ⱥ при переводе в нижний регистр занимает больше байт.
func TestParseReminderRepeatWordAfterWideRunes(t *testing.T) {
	for _, text := range []string{"ȺȺȺ 2024-09-01 ОСАГО ежегодно", "ȺȺȺ 2024-09-01 ОСАГО ЕЖЕГОДНО"} {
		var (
			d   Draft
			err error
		)
		require.NotPanics(t, func() { d, err = ParseReminder(text, parseNow) }, text)
		require.NoError(t, err)
		assert.Equal(t, "ȺȺȺ ОСАГО", d.Title)
		assert.Equal(t, "2024-09-01", d.DueDate)
		require.NotNil(t, d.RecurringInterval)
		assert.Equal(t, 365, *d.RecurringInterval)
	}
}

func TestParseReminderMileageOnly(t *testing.T) {
	d, err := ParseReminder("ТО на 90000 км", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "ТО", d.Title)
	assert.Empty(t, d.DueDate)
	assert.Equal(t, 90000, *d.DueMileage)
	assert.Equal(t, models.TypeMaintenance, d.Type)
}

func TestParseReminderDoesNotSplitWords(t *testing.T) {
	d, err := ParseReminder("2024-06-20 замена 17500 км", parseNow)
	require.NoError(t, err)
	assert.Equal(t, "замена 17500 км", d.Title)
	assert.Nil(t, d.DueMileage)
}

func TestParseReminderNaturalDate(t *testing.T) {
	d, err := ParseReminder("завтра заправиться", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-15", d.DueDate)
	assert.Equal(t, "заправиться", d.Title)
	assert.Equal(t, models.TypeFuel, d.Type)
}

func TestParseReminderErrors(t *testing.T) {
	_, err := ParseReminder("просто текст", parseNow)
	assert.ErrorIs(t, err, errNoDue)

	_, err = ParseReminder("2024-06-20", parseNow)
	assert.ErrorIs(t, err, errNoTitle)

	_, err = ParseReminder("   ", parseNow)
	assert.ErrorIs(t, err, errNoTitle)
}

func TestSplitCommand(t *testing.T) {
	cmd, arg := splitCommand("/done 12")
	assert.Equal(t, "/done", cmd)
	assert.Equal(t, "12", arg)

	cmd, arg = splitCommand("/List@garage_bot")
	assert.Equal(t, "/list", cmd)
	assert.Empty(t, arg)

	cmd, arg = splitCommand("замена масла")
	assert.Empty(t, cmd)
	assert.Equal(t, "замена масла", arg)
}
