package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

const reminderColumns = `id, vehicle_id, owner_id, title, description, due_date, due_mileage,
	type, is_complete, recurring_interval, recurring_mileage`

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *ReminderStore) Create(ctx context.Context, r models.Reminder) (models.Reminder, error) {
	return insertReminder(ctx, s.db, r)
}

func insertReminder(ctx context.Context, db execer, r models.Reminder) (models.Reminder, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO reminders
		(vehicle_id, owner_id, title, description, due_date, due_mileage, type, is_complete, recurring_interval, recurring_mileage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.VehicleID, r.OwnerID, r.Title, r.Description, r.DueDate, nullInt(r.DueMileage),
		string(r.Type), r.IsComplete, nullInt(r.RecurringInterval), nullInt(r.RecurringMileage))
	if err != nil {
		return models.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return models.Reminder{}, fmt.Errorf("reminder id: %w", err)
	}
	return r, nil
}

func (s *ReminderStore) Get(ctx context.Context, ownerID, id int64) (models.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE id = ? AND owner_id = ?", id, ownerID)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, ErrNotFound
	}
	if err != nil {
		return models.Reminder{}, fmt.Errorf("get reminder %d: %w", id, err)
	}
	return r, nil
}

// List возвращает напоминания владельца; vehicleID = 0 - по всем автомобилям.
// Порядок - порядок вставки, сортировкой по срочности занимается вызывающий.
func (s *ReminderStore) List(ctx context.Context, ownerID, vehicleID int64) ([]models.Reminder, error) {
	query := "SELECT " + reminderColumns + " FROM reminders WHERE owner_id = ?"
	args := []any{ownerID}
	if vehicleID != 0 {
		query += " AND vehicle_id = ?"
		args = append(args, vehicleID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return scanReminders(rows)
}

// Unnotified возвращает невыполненные напоминания всех владельцев,
// по которым сегодня (day) ещё не было уведомления.
func (s *ReminderStore) Unnotified(ctx context.Context, day string) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE is_complete = 0 AND notified_on <> ? ORDER BY id", day)
	if err != nil {
		return nil, fmt.Errorf("list unnotified reminders: %w", err)
	}
	return scanReminders(rows)
}

func (s *ReminderStore) MarkNotified(ctx context.Context, id int64, day string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE reminders SET notified_on = ? WHERE id = ?", day, id)
	if err != nil {
		return fmt.Errorf("mark reminder %d notified: %w", id, err)
	}
	return nil
}

// Update перезаписывает редактируемые поля напоминания.
func (s *ReminderStore) Update(ctx context.Context, r models.Reminder) (models.Reminder, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET
		title = ?, description = ?, due_date = ?, due_mileage = ?, type = ?,
		recurring_interval = ?, recurring_mileage = ?, notified_on = ''
		WHERE id = ? AND owner_id = ?`,
		r.Title, r.Description, r.DueDate, nullInt(r.DueMileage), string(r.Type),
		nullInt(r.RecurringInterval), nullInt(r.RecurringMileage), r.ID, r.OwnerID)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("update reminder %d: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Reminder{}, ErrNotFound
	}
	return s.Get(ctx, r.OwnerID, r.ID)
}

func (s *ReminderStore) SetComplete(ctx context.Context, ownerID, id int64, done bool) error {
	return setComplete(ctx, s.db, ownerID, id, done)
}

func setComplete(ctx context.Context, db execer, ownerID, id int64, done bool) error {
	res, err := db.ExecContext(ctx,
		"UPDATE reminders SET is_complete = ? WHERE id = ? AND owner_id = ?", done, id, ownerID)
	if err != nil {
		return fmt.Errorf("set reminder %d complete: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteWithSuccessor отмечает напоминание выполненным и в той же
// транзакции сохраняет следующее вхождение. Если напоминание уже выполнено,
// преемник не создаётся и возвращается ErrAlreadyComplete.
func (s *ReminderStore) CompleteWithSuccessor(ctx context.Context, ownerID, id int64, next models.Reminder) (models.Reminder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE reminders SET is_complete = 1 WHERE id = ? AND owner_id = ? AND is_complete = 0", id, ownerID)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("complete reminder %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM reminders WHERE id = ? AND owner_id = ?", id, ownerID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reminder{}, ErrNotFound
		}
		if err != nil {
			return models.Reminder{}, fmt.Errorf("get reminder %d: %w", id, err)
		}
		return models.Reminder{}, ErrAlreadyComplete
	}
	created, err := insertReminder(ctx, tx, next)
	if err != nil {
		return models.Reminder{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Reminder{}, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *ReminderStore) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	defer rows.Close()

	var list []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func scanReminder(row scanner) (models.Reminder, error) {
	var (
		r                             models.Reminder
		typ                           string
		dueMileage, interval, mileage sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.VehicleID, &r.OwnerID, &r.Title, &r.Description, &r.DueDate,
		&dueMileage, &typ, &r.IsComplete, &interval, &mileage)
	if err != nil {
		return models.Reminder{}, err
	}
	r.Type = models.ReminderType(typ)
	r.DueMileage = intPtr(dueMileage)
	r.RecurringInterval = intPtr(interval)
	r.RecurringMileage = intPtr(mileage)
	return r, nil
}
