package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS projects (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	address          TEXT NOT NULL,
	lat              REAL NOT NULL DEFAULT 0,
	lng              REAL NOT NULL DEFAULT 0,
	design_data      TEXT NOT NULL,
	total_lf         REAL NOT NULL DEFAULT 0,
	parallel_lf      REAL NOT NULL DEFAULT 0,
	transition_count INTEGER NOT NULL DEFAULT 0,
	stormwater_count INTEGER NOT NULL DEFAULT 0,
	total_cost       INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'draft',
	customer_name    TEXT,
	customer_phone   TEXT,
	customer_email   TEXT,
	notes            TEXT,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_updated_at ON projects (updated_at DESC);`

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db    *sql.DB
	clock clock.Clock
	log   *zap.Logger
}

type Option func(*SQLite)

func WithClock(c clock.Clock) Option {
	return func(s *SQLite) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *SQLite) {
		if l != nil {
			s.log = l.Named("store")
		}
	}
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// one writer; also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	s := &SQLite{db: db, clock: clock.SystemClock{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log.Debug("store opened", zap.String("path", path))
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Save(ctx context.Context, p Project) (Project, error) {
	data, err := design.MarshalFeatures(p.Design)
	if err != nil {
		return Project{}, fmt.Errorf("encoding design: %w", err)
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	p.UpdatedAt = now

	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		_, err = s.db.ExecContext(ctx, `INSERT INTO projects (id, name, address, lat, lng, design_data,
			total_lf, parallel_lf, transition_count, stormwater_count, total_cost, status,
			customer_name, customer_phone, customer_email, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Address, p.Lat, p.Lng, string(data),
			p.Totals.HydrobloxLF, p.Totals.ParallelLF, p.Totals.TransitionCount, p.Totals.StormwaterCount, p.Totals.TotalCost,
			string(p.Status), nullable(p.Customer.Name), nullable(p.Customer.Phone), nullable(p.Customer.Email), nullable(p.Notes),
			now.UnixMilli(), now.UnixMilli())
		if err != nil {
			return Project{}, fmt.Errorf("inserting project: %w", err)
		}
		s.log.Debug("project created", zap.String("id", p.ID))
		return p, nil
	}

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name = ?, address = ?, lat = ?, lng = ?, design_data = ?,
		total_lf = ?, parallel_lf = ?, transition_count = ?, stormwater_count = ?, total_cost = ?, status = ?,
		customer_name = ?, customer_phone = ?, customer_email = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Address, p.Lat, p.Lng, string(data),
		p.Totals.HydrobloxLF, p.Totals.ParallelLF, p.Totals.TransitionCount, p.Totals.StormwaterCount, p.Totals.TotalCost,
		string(p.Status), nullable(p.Customer.Name), nullable(p.Customer.Phone), nullable(p.Customer.Email), nullable(p.Notes),
		now.UnixMilli(), p.ID)
	if err != nil {
		return Project{}, fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	if err := expectOne(res, p.ID); err != nil {
		return Project{}, err
	}
	s.log.Debug("project updated", zap.String("id", p.ID), zap.Int("features", len(p.Design)))
	return s.Load(ctx, p.ID)
}

func (s *SQLite) Load(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, address, lat, lng, design_data,
		total_lf, parallel_lf, transition_count, stormwater_count, total_cost, status,
		COALESCE(customer_name, ''), COALESCE(customer_phone, ''), COALESCE(customer_email, ''),
		COALESCE(notes, ''), created_at, updated_at
		FROM projects WHERE id = ?`, id)

	var p Project
	var data, status string
	var created, updated int64
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Lat, &p.Lng, &data,
		&p.Totals.HydrobloxLF, &p.Totals.ParallelLF, &p.Totals.TransitionCount, &p.Totals.StormwaterCount, &p.Totals.TotalCost,
		&status, &p.Customer.Name, &p.Customer.Phone, &p.Customer.Email, &p.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("loading project %s: %w", id, err)
	}

	p.Design, err = design.UnmarshalFeatures([]byte(data))
	if err != nil {
		return Project{}, fmt.Errorf("project %s: %w", id, err)
	}
	p.Status = Status(status)
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, total_cost, status, updated_at
		FROM projects ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var status string
		var updated int64
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Address, &sm.TotalCost, &status, &updated); err != nil {
			return nil, err
		}
		sm.Status = Status(status)
		sm.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	s.log.Debug("project deleted", zap.String("id", id))
	return nil
}

func (s *SQLite) UpdateStatus(ctx context.Context, id string, status Status) (Project, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Project{}, err
	}
	now := s.clock.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.UnixMilli(), id)
	if err != nil {
		return Project{}, fmt.Errorf("updating status of %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return Project{}, err
	}
	return s.Load(ctx, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
