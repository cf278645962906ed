package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// Migration is a single SQL file from the migrations directory.
type Migration struct {
	Name    string
	Applied bool
}

// Execer is the subset of a pgx connection used by the migrator.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Migrator applies ordered .sql files and records them in schema_migrations.
type Migrator struct {
	Dir string
	Log func(format string, args ...any)
}

// ListMigrations returns the .sql files in dir sorted by name.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Status reports every known migration and whether it has been applied.
func (m Migrator) Status(ctx context.Context, conn Execer) ([]Migration, error) {
	names, err := ListMigrations(m.Dir)
	if err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx, conn)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		_, ok := applied[name]
		out = append(out, Migration{Name: name, Applied: ok})
	}
	return out, nil
}

// Up applies every pending migration in order and returns the names applied.
func (m Migrator) Up(ctx context.Context, conn Execer) ([]string, error) {
	status, err := m.Status(ctx, conn)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range status {
		if mig.Applied {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(m.Dir, mig.Name))
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", mig.Name, err)
		}

		if err := m.applyWithRetry(ctx, conn, mig.Name, string(contents)); err != nil {
			return done, err
		}
		done = append(done, mig.Name)
	}
	return done, nil
}

func (m Migrator) applied(ctx context.Context, conn Execer) (map[string]struct{}, error) {
	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

func (m Migrator) applyWithRetry(ctx context.Context, conn Execer, name, contents string) error {
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoff(attempt)); err != nil {
				return err
			}
		}

		err := m.applyOnce(ctx, conn, name, contents)
		if err == nil {
			return nil
		}
		if !ShouldRetry(err) || attempt == migrationMaxRetries-1 {
			return err
		}
		m.logf("transient error applying migration %s (attempt %d/%d): %v", name, attempt+1, migrationMaxRetries, err)
	}
	return fmt.Errorf("apply migration %s: exceeded max retries (%d)", name, migrationMaxRetries)
}

func (m Migrator) applyOnce(ctx context.Context, conn Execer, name, contents string) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction for %s: %w", name, err)
	}

	if _, err := tx.Exec(ctx, contents); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func (m Migrator) logf(format string, args ...any) {
	if m.Log != nil {
		m.Log(format, args...)
	}
}

// ShouldRetry reports whether err is a transient failure worth retrying.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgErrorCodes[pgErr.Code]
		return ok
	}
	return false
}

func backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
	if d > migrationMaxBackoff {
		d = migrationMaxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
