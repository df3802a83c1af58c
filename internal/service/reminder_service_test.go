package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
	"github.com/rturovtsev/vehicle-reminder/internal/storage"
)

const owner = int64(100)

func intp(v int) *int { return &v }

func strp(s string) *string { return &s }

func newTestService(t *testing.T, now time.Time) (*ReminderService, models.Vehicle) {
	t.Helper()
	db, err := storage.InitDB(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewReminderService(storage.NewVehicleStore(db), storage.NewReminderStore(db),
		status.Engine{Clock: status.Fixed(now)}, nil)

	v, err := svc.AddVehicle(context.Background(), models.Vehicle{OwnerID: owner, Name: " Octavia "})
	require.NoError(t, err)
	assert.Equal(t, "Octavia", v.Name)
	return svc, v
}

func TestCreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	_, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "ТО", DueDate: "nope"})
	var dateErr *status.InvalidDateError
	assert.True(t, errors.As(err, &dateErr))

	_, err = svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "ТО", DueDate: "2024-06-20", RecurringInterval: intp(-1)})
	var recErr *status.InvalidRecurrenceError
	assert.True(t, errors.As(err, &recErr))

	_, err = svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, DueDate: "2024-06-20"})
	assert.Error(t, err)

	_, err = svc.Create(ctx, models.Reminder{OwnerID: owner + 1, VehicleID: v.ID, Title: "чужая", DueDate: "2024-06-20"})
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "ТО", DueDate: "2024-06-20", IsComplete: true})
	require.NoError(t, err)
	assert.False(t, r.IsComplete)
	assert.Equal(t, models.TypeOther, r.Type)
}

func TestListSortedWithStatus(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	for _, r := range []models.Reminder{
		{Title: "страховка", DueDate: "2024-07-30", Type: models.TypeInsurance},
		{Title: "масло", DueMileage: intp(17500), Type: models.TypeMaintenance},
		{Title: "налог", DueDate: "2024-06-10", Type: models.TypeTax},
		{Title: "мойка", DueDate: "2024-06-14"},
	} {
		r.OwnerID, r.VehicleID = owner, v.ID
		_, err := svc.Create(ctx, r)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, owner, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, "налог", list[0].Reminder.Title)
	assert.Equal(t, status.Status{Kind: status.Overdue, DaysUntilDue: -4}, list[0].Status)
	assert.Equal(t, status.DueToday, list[1].Status.Kind)
	assert.Equal(t, status.Upcoming, list[2].Status.Kind)
	assert.Equal(t, "масло", list[3].Reminder.Title)
	assert.Error(t, list[3].Err)
}

func TestSetCompleteNonRecurring(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	r, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "мойка", DueDate: "2024-06-14"})
	require.NoError(t, err)

	next, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	assert.Nil(t, next)

	e, err := svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Completed, e.Status.Kind)

	list, err := svc.List(ctx, owner, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSetCompleteRecurringCreatesSuccessor(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC))

	r, err := svc.Create(ctx, models.Reminder{
		OwnerID: owner, VehicleID: v.ID, Title: "ТО", DueDate: "2023-01-01",
		DueMileage: intp(17500), Type: models.TypeMaintenance,
		RecurringInterval: intp(90), RecurringMileage: intp(5000),
	})
	require.NoError(t, err)

	next, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "2023-04-01", next.DueDate)
	assert.Equal(t, 22500, *next.DueMileage)
	assert.False(t, next.IsComplete)

	again, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	assert.Nil(t, again, "completing twice must not create a second successor")

	list, err := svc.List(ctx, owner, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, next.ID, list[0].Reminder.ID)
	assert.True(t, list[1].Reminder.IsComplete)

	_, err = svc.SetComplete(ctx, owner, r.ID, false)
	require.NoError(t, err)
	list, err = svc.List(ctx, owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2, "reopening keeps the successor")
}

func TestSetCompleteMileageRecurrenceWithoutDueMileage(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

	r, err := svc.Create(ctx, models.Reminder{
		OwnerID: owner, VehicleID: v.ID, Title: "шины", DueDate: "2024-09-01",
		Type: models.TypeMaintenance, RecurringMileage: intp(10000),
	})
	require.NoError(t, err)

	next, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	assert.Nil(t, next)

	list, err := svc.List(ctx, owner, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Reminder.IsComplete)
	for _, e := range list {
		assert.NoError(t, status.Validate(e.Reminder))
	}
}

// staleReminders отдаёт напоминание невыполненным, как будто его только что
// выполнил другой процесс.
type staleReminders struct {
	*storage.ReminderStore
}

func (s staleReminders) Get(ctx context.Context, ownerID, id int64) (models.Reminder, error) {
	r, err := s.ReminderStore.Get(ctx, ownerID, id)
	r.IsComplete = false
	return r, err
}

func TestSetCompleteConcurrentCompletionCreatesOneSuccessor(t *testing.T) {
	ctx := context.Background()
	db, err := storage.InitDB(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewReminderStore(db)
	svc := NewReminderService(storage.NewVehicleStore(db), staleReminders{store},
		status.Engine{Clock: status.Fixed(time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))}, nil)

	v, err := svc.AddVehicle(ctx, models.Vehicle{OwnerID: owner, Name: "Octavia"})
	require.NoError(t, err)
	r, err := svc.Create(ctx, models.Reminder{
		OwnerID: owner, VehicleID: v.ID, Title: "ОСАГО", DueDate: "2024-06-14",
		RecurringInterval: intp(365),
	})
	require.NoError(t, err)

	next, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	require.NotNil(t, next)

	again, err := svc.SetComplete(ctx, owner, r.ID, true)
	require.NoError(t, err)
	assert.Nil(t, again)

	list, err := store.List(ctx, owner, v.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSetCompleteMissing(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	_, err := svc.SetComplete(context.Background(), owner, 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	r, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "ТО", DueDate: "2024-06-20", DueMileage: intp(1000), RecurringInterval: intp(30)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, r.ID, Patch{Title: strp(" ТО-2 "), DueDate: strp("2024-07-01"), ClearRecurrence: true})
	require.NoError(t, err)
	assert.Equal(t, "ТО-2", updated.Title)
	assert.Equal(t, "2024-07-01", updated.DueDate)
	assert.False(t, updated.IsRecurring())
	assert.Equal(t, 1000, *updated.DueMileage)

	_, err = svc.Update(ctx, owner, r.ID, Patch{RecurringMileage: intp(0)})
	var recErr *status.InvalidRecurrenceError
	assert.True(t, errors.As(err, &recErr))

	_, err = svc.Update(ctx, owner, r.ID, Patch{DueDate: strp(""), ClearDueMileage: true})
	assert.ErrorIs(t, err, status.ErrNoDue)

	_, err = svc.Update(ctx, owner+1, r.ID, Patch{Title: strp("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDueAndMarkNotified(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	for _, due := range []string{"2024-06-10", "2024-06-14", "2024-06-15", "2024-06-30"} {
		_, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: due, DueDate: due})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, models.Reminder{OwnerID: owner, VehicleID: v.ID, Title: "km", DueMileage: intp(5)})
	require.NoError(t, err)

	due, err := svc.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "2024-06-10", due[0].Reminder.Title)
	assert.Equal(t, "2024-06-14", due[1].Reminder.Title)

	require.NoError(t, svc.MarkNotified(ctx, due[0].Reminder.ID))
	due, err = svc.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "2024-06-14", due[0].Reminder.Title)
}

func TestDeleteVehicle(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestService(t, time.Now())

	require.NoError(t, svc.DeleteVehicle(ctx, owner, v.ID))
	assert.ErrorIs(t, svc.DeleteVehicle(ctx, owner, v.ID), ErrNotFound)

	_, err := svc.AddVehicle(ctx, models.Vehicle{OwnerID: owner, Name: "  "})
	assert.Error(t, err)
}
