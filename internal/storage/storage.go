package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound - запись не найдена или принадлежит другому владельцу.
var ErrNotFound = errors.New("not found")

// ErrAlreadyComplete - напоминание уже было выполнено.
var ErrAlreadyComplete = errors.New("reminder already completed")

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	plate TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reminders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vehicle_id INTEGER NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	owner_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	due_mileage INTEGER,
	type TEXT NOT NULL DEFAULT 'other',
	is_complete INTEGER NOT NULL DEFAULT 0,
	recurring_interval INTEGER,
	recurring_mileage INTEGER,
	notified_on TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS reminders_owner_idx ON reminders(owner_id, vehicle_id);
`

// InitDB открывает базу SQLite и создаёт таблицы.
func InitDB(filepath string) (*sql.DB, error) {
	// foreign_keys включается на каждое соединение через DSN
	db, err := sql.Open("sqlite3", "file:"+filepath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
