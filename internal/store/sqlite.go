package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS symptom_reports (
	id         TEXT PRIMARY KEY,
	symptoms   TEXT NOT NULL,
	address    TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLite stores records in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates reports.db inside dir.
func OpenSQLite(ctx context.Context, dir string) (*SQLite, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "reports.db")+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, rec *Record) error {
	prepare(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO symptom_reports (id, symptoms, address, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Symptoms, rec.Address, rec.Report, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	var (
		rec     Record
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, symptoms, address, report, created_at FROM symptom_reports WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Symptoms, &rec.Address, &rec.Report, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select report: %w", err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	return rec, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
