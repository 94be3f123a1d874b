// Package catalog records extraction runs and their silhouettes in SQLite so
// past results can be listed without walking the output directory.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nvr-ai/go-stillpose/logging"
	"github.com/nvr-ai/go-stillpose/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run summarizes one extraction run.
type Run struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Frames      int       `json:"frames"`
	Intervals   int       `json:"intervals"`
	Silhouettes int       `json:"silhouettes"`
	Skipped     int       `json:"skipped"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Silhouette is one recorded artifact.
type Silhouette struct {
	ID            int64   `json:"id"`
	RunID         string  `json:"run_id"`
	Source        string  `json:"source"`
	IntervalIndex int     `json:"interval_index"`
	IntervalStart int     `json:"interval_start"`
	IntervalEnd   int     `json:"interval_end"`
	FrameIndex    int     `json:"frame_index"`
	FramePath     string  `json:"frame_path"`
	MaskPath      string  `json:"mask_path"`
	VectorPath    string  `json:"vector_path"`
	Area          int     `json:"area"`
	Confidence    float64 `json:"confidence"`
}

// Catalog is a SQLite-backed run store. It implements pipeline.Recorder.
type Catalog struct {
	conn   *sql.DB
	logger zerolog.Logger
}

var _ pipeline.Recorder = (*Catalog)(nil)

// Open opens or creates the catalog at dbPath and applies pending migrations.
//
// Arguments:
//   - dbPath: The SQLite file. Parent directories are created.
//   - logger: Receives migration messages.
//
// Returns:
//   - *Catalog: The open catalog.
//   - error: An error if the database cannot be opened or migrated.
func Open(dbPath string, logger zerolog.Logger) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create catalog directory")
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open catalog")
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping catalog")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to execute %s", pragma)
		}
	}

	c := &Catalog{conn: conn, logger: logging.WithComponent(logger, "catalog")}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

func (c *Catalog) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if c.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		if _, err := c.conn.Exec(string(content)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", name)
		}
		if _, err := c.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return errors.Wrapf(err, "failed to record migration %s", name)
		}
		c.logger.Info().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (c *Catalog) isMigrationApplied(name string) bool {
	var exists int
	err := c.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}
	var applied int
	err = c.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Record stores a run with its artifacts and skipped intervals in one
// transaction.
func (c *Catalog) Record(ctx context.Context, result *pipeline.Result) error {
	if result == nil {
		return errors.New("cannot record a nil result")
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, frames, intervals, silhouettes, skipped, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Source, result.Frames, len(result.Intervals), len(result.Artifacts),
		len(result.Skipped), formatTime(result.StartedAt), formatTime(result.FinishedAt))
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", result.RunID)
	}

	for _, a := range result.Artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO silhouettes (run_id, interval_index, interval_start, interval_end, frame_index,
				frame_path, mask_path, vector_path, area, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.RunID, a.Index, a.Interval.Start, a.Interval.End, a.FrameIndex,
			a.FramePath, a.MaskPath, a.VectorPath, a.Component.Area, float64(a.Confidence))
		if err != nil {
			return errors.Wrapf(err, "failed to insert silhouette %d", a.Index)
		}
	}

	for _, s := range result.Skipped {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skipped_intervals (run_id, interval_index, interval_start, interval_end, kind, reason)
			VALUES (?, ?, ?, ?, ?, ?)
		`, result.RunID, s.Index, s.Interval.Start, s.Interval.End, s.Kind, s.Reason)
		if err != nil {
			return errors.Wrapf(err, "failed to insert skipped interval %d", s.Index)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit run")
	}
	c.logger.Debug().
		Str("run_id", result.RunID).
		Int("silhouettes", len(result.Artifacts)).
		Msg("recorded run")
	return nil
}

const runColumns = `id, source, frames, intervals, silhouettes, skipped, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var startedAt, finishedAt string
	if err := row.Scan(&r.ID, &r.Source, &r.Frames, &r.Intervals, &r.Silhouettes, &r.Skipped,
		&startedAt, &finishedAt); err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	r.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
	return &r, nil
}

// GetRun returns the run with id, or ErrRunNotFound.
func (c *Catalog) GetRun(ctx context.Context, id string) (*Run, error) {
	row := c.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read run %s", id)
	}
	return r, nil
}

// ListRuns returns runs newest first. A limit of 0 or less returns all runs.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListSilhouettes returns the silhouettes of runID in interval order, or of
// every run, newest run first, when runID is empty.
func (c *Catalog) ListSilhouettes(ctx context.Context, runID string) ([]*Silhouette, error) {
	query := `
		SELECT s.id, s.run_id, r.source, s.interval_index, s.interval_start, s.interval_end,
			s.frame_index, s.frame_path, s.mask_path, s.vector_path, s.area, s.confidence
		FROM silhouettes s JOIN runs r ON r.id = s.run_id`
	args := []any{}
	if runID != "" {
		query += ` WHERE s.run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY r.started_at DESC, r.rowid DESC, s.interval_index ASC`

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list silhouettes")
	}
	defer rows.Close()

	var out []*Silhouette
	for rows.Next() {
		var s Silhouette
		if err := rows.Scan(&s.ID, &s.RunID, &s.Source, &s.IntervalIndex, &s.IntervalStart, &s.IntervalEnd,
			&s.FrameIndex, &s.FramePath, &s.MaskPath, &s.VectorPath, &s.Area, &s.Confidence); err != nil {
			return nil, errors.Wrap(err, "failed to scan silhouette")
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its rows. Files on
// disk are left alone.
func (c *Catalog) DeleteRun(ctx context.Context, id string) error {
	res, err := c.conn.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete run %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrap(ErrRunNotFound, id)
	}
	return nil
}

// timeLayout is fixed width so timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
