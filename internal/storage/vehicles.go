package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rturovtsev/vehicle-reminder/internal/models"
)

type VehicleStore struct {
	db *sql.DB
}

func NewVehicleStore(db *sql.DB) *VehicleStore {
	return &VehicleStore{db: db}
}

func (s *VehicleStore) Create(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO vehicles (owner_id, name, make, model, year, plate) VALUES (?, ?, ?, ?, ?, ?)",
		v.OwnerID, v.Name, v.Make, v.Model, v.Year, v.Plate)
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("insert vehicle: %w", err)
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("vehicle id: %w", err)
	}
	return v, nil
}

func (s *VehicleStore) Get(ctx context.Context, ownerID, id int64) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, make, model, year, plate FROM vehicles WHERE id = ? AND owner_id = ?",
		id, ownerID).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Make, &v.Model, &v.Year, &v.Plate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, ErrNotFound
	}
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	return v, nil
}

func (s *VehicleStore) List(ctx context.Context, ownerID int64) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, name, make, model, year, plate FROM vehicles WHERE owner_id = ? ORDER BY id",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var list []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Make, &v.Model, &v.Year, &v.Plate); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Delete удаляет автомобиль вместе с его напоминаниями.
func (s *VehicleStore) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
