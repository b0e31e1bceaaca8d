package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/checkout-bridge/pkg/logger"
)

// DefaultDir is where the CLI reads and writes migrations on disk.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(fmt.Sprintf("migrate: embedded migrations: %v", err))
	}
	return sub
}

// Migrator applies the checkout schema through a goose provider.
type Migrator struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// New returns a Postgres migrator reading migrations from fsys. A nil fsys
// falls back to the embedded set.
func New(db *sql.DB, fsys fs.FS, logg *logger.Logger) (*Migrator, error) {
	return newMigrator(goose.DialectPostgres, db, fsys, logg)
}

// NewFromDir is New over migrations stored in dir.
func NewFromDir(db *sql.DB, dir string, logg *logger.Logger) (*Migrator, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	return New(db, os.DirFS(dir), logg)
}

func newMigrator(dialect goose.Dialect, db *sql.DB, fsys fs.FS, logg *logger.Logger) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if fsys == nil {
		fsys = Embedded()
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider, logg: logg}, nil
}

// Run executes up, down, redo or status.
func (m *Migrator) Run(ctx context.Context, command string) error {
	switch command {
	case "up":
		results, err := m.provider.Up(ctx)
		m.logResults(ctx, results)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		if len(results) == 0 {
			m.logg.Info(ctx, "migrate.up_to_date")
		}
		return nil

	case "down":
		result, err := m.provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		m.logResults(ctx, []*goose.MigrationResult{result})
		return nil

	case "redo":
		down, err := m.provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose redo: %w", err)
		}
		up, err := m.provider.UpByOne(ctx)
		m.logResults(ctx, []*goose.MigrationResult{down, up})
		if err != nil {
			return fmt.Errorf("goose redo: %w", err)
		}
		return nil

	case "status":
		statuses, err := m.provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			fields := map[string]any{
				"version": st.Source.Version,
				"file":    st.Source.Path,
				"state":   string(st.State),
			}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			m.logg.Info(m.logg.WithFields(ctx, fields), "migrate.status")
		}
		return nil

	default:
		return fmt.Errorf("unsupported migrate command %q", command)
	}
}

// MigrateToVersion moves the schema up or down until it sits at targetVersion.
func (m *Migrator) MigrateToVersion(ctx context.Context, targetVersion string) error {
	if targetVersion == "" {
		return errors.New("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = m.provider.UpTo(ctx, target)
	default:
		results, err = m.provider.DownTo(ctx, target)
	}
	m.logResults(ctx, results)
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return nil
}

// Version reports the highest applied migration.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

func (m *Migrator) logResults(ctx context.Context, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migrate.applied")
	}
}
