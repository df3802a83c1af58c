package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
	"github.com/rturovtsev/vehicle-reminder/internal/status"
	"github.com/rturovtsev/vehicle-reminder/internal/storage"
)

var ErrNotFound = errors.New("not found")

// VehicleRepo и ReminderRepo реализуются пакетом storage.
type VehicleRepo interface {
	Create(ctx context.Context, v models.Vehicle) (models.Vehicle, error)
	Get(ctx context.Context, ownerID, id int64) (models.Vehicle, error)
	List(ctx context.Context, ownerID int64) ([]models.Vehicle, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type ReminderRepo interface {
	Create(ctx context.Context, r models.Reminder) (models.Reminder, error)
	Get(ctx context.Context, ownerID, id int64) (models.Reminder, error)
	List(ctx context.Context, ownerID, vehicleID int64) ([]models.Reminder, error)
	Update(ctx context.Context, r models.Reminder) (models.Reminder, error)
	SetComplete(ctx context.Context, ownerID, id int64, done bool) error
	CompleteWithSuccessor(ctx context.Context, ownerID, id int64, next models.Reminder) (models.Reminder, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Unnotified(ctx context.Context, day string) ([]models.Reminder, error)
	MarkNotified(ctx context.Context, id int64, day string) error
}

// Entry - напоминание вместе с вычисленным статусом. Если дата не
// разбирается, Err содержит ошибку движка, а Status не заполнен.
type Entry struct {
	Reminder models.Reminder `json:"reminder"`
	Status   status.Status   `json:"status"`
	Err      error           `json:"-"`
}

type ReminderService struct {
	vehicles  VehicleRepo
	reminders ReminderRepo
	engine    status.Engine
	log       *slog.Logger
}

func NewReminderService(v VehicleRepo, r ReminderRepo, engine status.Engine, log *slog.Logger) *ReminderService {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderService{vehicles: v, reminders: r, engine: engine, log: log.With("component", "service")}
}

func (s *ReminderService) AddVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return models.Vehicle{}, errors.New("vehicle name is required")
	}
	return s.vehicles.Create(ctx, v)
}

func (s *ReminderService) Vehicles(ctx context.Context, ownerID int64) ([]models.Vehicle, error) {
	return s.vehicles.List(ctx, ownerID)
}

func (s *ReminderService) Vehicle(ctx context.Context, ownerID, id int64) (models.Vehicle, error) {
	v, err := s.vehicles.Get(ctx, ownerID, id)
	return v, mapErr(err)
}

func (s *ReminderService) DeleteVehicle(ctx context.Context, ownerID, id int64) error {
	return mapErr(s.vehicles.Delete(ctx, ownerID, id))
}

// Create сохраняет новое напоминание. Новое напоминание всегда невыполнено.
func (s *ReminderService) Create(ctx context.Context, r models.Reminder) (models.Reminder, error) {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.IsComplete = false
	if r.Type == "" {
		r.Type = models.TypeOther
	}
	if r.Title == "" {
		return models.Reminder{}, errors.New("title is required")
	}
	if err := status.Validate(r); err != nil {
		return models.Reminder{}, err
	}
	if _, err := s.vehicles.Get(ctx, r.OwnerID, r.VehicleID); err != nil {
		return models.Reminder{}, mapErr(err)
	}
	return s.reminders.Create(ctx, r)
}

func (s *ReminderService) Get(ctx context.Context, ownerID, id int64) (Entry, error) {
	r, err := s.reminders.Get(ctx, ownerID, id)
	if err != nil {
		return Entry{}, mapErr(err)
	}
	return s.entry(r), nil
}

// List возвращает напоминания, отсортированные по срочности.
func (s *ReminderService) List(ctx context.Context, ownerID, vehicleID int64) ([]Entry, error) {
	list, err := s.reminders.List(ctx, ownerID, vehicleID)
	if err != nil {
		return nil, err
	}

	sorted := s.engine.SortByUrgency(list)
	out := make([]Entry, len(sorted))
	for i, r := range sorted {
		out[i] = s.entry(r)
	}
	return out, nil
}

func (s *ReminderService) entry(r models.Reminder) Entry {
	st, err := s.engine.Classify(r)
	return Entry{Reminder: r, Status: st, Err: err}
}

// Patch - частичное изменение напоминания; nil-поля не меняются.
// ClearDueMileage и ClearRecurrence сбрасывают соответствующие поля.
type Patch struct {
	Title             *string
	Description       *string
	DueDate           *string
	DueMileage        *int
	RecurringInterval *int
	RecurringMileage  *int
	ClearDueMileage   bool
	ClearRecurrence   bool
}

func (s *ReminderService) Update(ctx context.Context, ownerID, id int64, p Patch) (models.Reminder, error) {
	r, err := s.reminders.Get(ctx, ownerID, id)
	if err != nil {
		return models.Reminder{}, mapErr(err)
	}

	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueDate != nil {
		r.DueDate = strings.TrimSpace(*p.DueDate)
	}
	if p.ClearDueMileage {
		r.DueMileage = nil
	}
	if p.DueMileage != nil {
		r.DueMileage = p.DueMileage
	}
	if p.ClearRecurrence {
		r.RecurringInterval, r.RecurringMileage = nil, nil
	}
	if p.RecurringInterval != nil {
		r.RecurringInterval = p.RecurringInterval
	}
	if p.RecurringMileage != nil {
		r.RecurringMileage = p.RecurringMileage
	}

	if r.Title == "" {
		return models.Reminder{}, errors.New("title is required")
	}
	if err := status.Validate(r); err != nil {
		return models.Reminder{}, err
	}
	updated, err := s.reminders.Update(ctx, r)
	return updated, mapErr(err)
}

// SetComplete отмечает напоминание выполненным или снимает отметку.
// Для повторяющегося напоминания при выполнении создаётся следующее
// вхождение, оно и возвращается. Повторное выполнение уже выполненного
// напоминания преемника не создаёт. Снятие отметки преемника не удаляет.
func (s *ReminderService) SetComplete(ctx context.Context, ownerID, id int64, done bool) (*models.Reminder, error) {
	r, err := s.reminders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, mapErr(err)
	}

	if !done || r.IsComplete {
		return nil, mapErr(s.reminders.SetComplete(ctx, ownerID, id, done))
	}

	next, err := s.engine.AdvanceOccurrence(r)
	if err != nil {
		return nil, err
	}
	if next != nil {
		// повтор только по пробегу без dueMileage: следующему вхождению не от чего отсчитываться
		if err := status.Validate(*next); errors.Is(err, status.ErrNoDue) {
			s.log.Debug("recurring reminder has no next due", "id", id)
			next = nil
		} else if err != nil {
			return nil, err
		}
	}
	if next == nil {
		return nil, mapErr(s.reminders.SetComplete(ctx, ownerID, id, true))
	}

	created, err := s.reminders.CompleteWithSuccessor(ctx, ownerID, id, *next)
	if errors.Is(err, storage.ErrAlreadyComplete) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	s.log.Debug("recurring reminder advanced", "id", id, "next_id", created.ID,
		"due_date", created.DueDate, "due_mileage", created.DueMileage)
	return &created, nil
}

func (s *ReminderService) Delete(ctx context.Context, ownerID, id int64) error {
	return mapErr(s.reminders.Delete(ctx, ownerID, id))
}

// Due возвращает просроченные и сегодняшние напоминания всех владельцев,
// о которых сегодня ещё не уведомляли. Неклассифицируемые пропускаются с
// записью в лог.
func (s *ReminderService) Due(ctx context.Context) ([]Entry, error) {
	today := status.FormatDate(s.engine.Now())
	list, err := s.reminders.Unnotified(ctx, today)
	if err != nil {
		return nil, err
	}

	var due []Entry
	for _, r := range s.engine.SortByUrgency(list) {
		e := s.entry(r)
		if e.Err != nil {
			if r.DueDate != "" {
				s.log.Warn("unclassifiable reminder", "id", r.ID, "error", e.Err)
			}
			continue
		}
		if e.Status.Kind == status.Overdue || e.Status.Kind == status.DueToday {
			due = append(due, e)
		}
	}
	return due, nil
}

// MarkNotified запоминает, что сегодня по напоминанию уже уведомили.
func (s *ReminderService) MarkNotified(ctx context.Context, id int64) error {
	return s.reminders.MarkNotified(ctx, id, status.FormatDate(s.engine.Now()))
}

func mapErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
