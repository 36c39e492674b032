package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/spinlab/internal/experiment"
)

// Catalog indexes runs and their observables in SQLite so scans can be
// queried across runs.
type Catalog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return errors.New("catalog path is required")
	}
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	c.db = db
	return nil
}

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			size INTEGER NOT NULL,
			coupling REAL NOT NULL,
			critical_temperature REAL NOT NULL,
			seed INTEGER NOT NULL,
			bins INTEGER NOT NULL,
			train_samples INTEGER NOT NULL,
			test_samples INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS observables (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			point_index INTEGER NOT NULL,
			temperature REAL NOT NULL,
			phase INTEGER NOT NULL,
			energy REAL NOT NULL,
			magnetization REAL NOT NULL,
			specific_heat REAL NOT NULL,
			susceptibility REAL NOT NULL,
			acceptance REAL NOT NULL,
			PRIMARY KEY (run_id, point_index)
		);
	`)
	return err
}

// RecordRun upserts a run and replaces its observables.
func (c *Catalog) RecordRun(ctx context.Context, meta RunMetadata, points []experiment.Point) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, model, size, coupling, critical_temperature, seed, bins, train_samples, test_samples, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			model = excluded.model,
			size = excluded.size,
			coupling = excluded.coupling,
			critical_temperature = excluded.critical_temperature,
			seed = excluded.seed,
			bins = excluded.bins,
			train_samples = excluded.train_samples,
			test_samples = excluded.test_samples,
			created_at = excluded.created_at
	`, meta.ID, meta.Model, meta.Size, meta.Coupling, meta.CriticalTemperature, meta.Seed,
		meta.Bins, meta.TrainSamples, meta.TestSamples, meta.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert run %s: %w", meta.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM observables WHERE run_id = ?`, meta.ID); err != nil {
		return err
	}
	for i, p := range points {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO observables (run_id, point_index, temperature, phase, energy, magnetization, specific_heat, susceptibility, acceptance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, meta.ID, i, p.Temperature, p.Phase, p.Energy, p.Magnetization, p.SpecificHeat, p.Susceptibility, p.Acceptance)
		if err != nil {
			return fmt.Errorf("insert observables %s T=%g: %w", meta.ID, p.Temperature, err)
		}
	}

	return tx.Commit()
}

// Runs lists catalogued runs, optionally filtered by model, newest first.
func (c *Catalog) Runs(ctx context.Context, model string) ([]RunMetadata, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, model, size, coupling, critical_temperature, seed, bins, train_samples, test_samples, created_at
		FROM runs
		WHERE ? = '' OR model = ?
		ORDER BY created_at DESC
	`, model, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunMetadata
	for rows.Next() {
		var (
			m       RunMetadata
			created int64
		)
		if err := rows.Scan(&m.ID, &m.Model, &m.Size, &m.Coupling, &m.CriticalTemperature, &m.Seed,
			&m.Bins, &m.TrainSamples, &m.TestSamples, &created); err != nil {
			return nil, err
		}
		m.Timestamp = time.Unix(0, created).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Points returns the observables of a run in scan order.
func (c *Catalog) Points(ctx context.Context, runID string) ([]experiment.Point, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT temperature, phase, energy, magnetization, specific_heat, susceptibility, acceptance
		FROM observables
		WHERE run_id = ?
		ORDER BY point_index
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []experiment.Point
	for rows.Next() {
		var p experiment.Point
		if err := rows.Scan(&p.Temperature, &p.Phase, &p.Energy, &p.Magnetization,
			&p.SpecificHeat, &p.Susceptibility, &p.Acceptance); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *Catalog) getDB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, errors.New("catalog is not initialized")
	}
	return c.db, nil
}
