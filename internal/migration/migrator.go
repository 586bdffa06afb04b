package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
)

//go:embed sql
var migrations embed.FS

// goose keeps dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// Module provides the migrator to Fx without running anything.
var Module = fx.Provide(New)

// AutoMigrate applies pending migrations on start when DB_AUTO_MIGRATE is set,
// so the users and orders tables exist before the first request.
var AutoMigrate = fx.Options(
	Module,
	fx.Invoke(registerAutoMigrate),
)

// Migrator wraps goose operations over the embedded per-dialect SQL files.
type Migrator struct {
	db      *bun.DB
	dialect string
	logger  *zap.Logger
}

// New constructs a goose-backed migrator bound to the writer pool.
func New(conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	return NewForDB(conns.Driver, conns.Writer, logger)
}

// NewForDB constructs a migrator for an explicit driver and handle.
func NewForDB(driver string, db *bun.DB, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, dialect: dialect, logger: logger}, nil
}

func registerAutoMigrate(lc fx.Lifecycle, cfg config.Config, m *Migrator) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: m.Up,
	})
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.run(func(dir string) error {
		return goose.UpContext(ctx, m.db.DB, dir)
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	m.logger.Info("migrations applied", zap.String("dialect", m.dialect))
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		err := m.run(func(dir string) error {
			return goose.DownToContext(ctx, m.db.DB, dir, 0)
		})
		if err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	err := m.run(func(dir string) error {
		for i := 0; i < steps; i++ {
			if err := goose.DownContext(ctx, m.db.DB, dir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to rollback")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))
	return nil
}

// Version reports the current schema version recorded by goose.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func(string) error {
		v, err := goose.GetDBVersionContext(ctx, m.db.DB)
		version = v
		return err
	})
	return version, err
}

func (m *Migrator) run(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: m.logger.Sugar()})
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	return fn(path.Join("sql", m.dialect))
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres, config.DriverPGX, "pg":
		return "postgres", nil
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverSQLite, "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) ||
		errors.Is(err, goose.ErrNoCurrentVersion) ||
		errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	return strings.Contains(err.Error(), "no migrations")
}

type gooseLogger struct {
	logger *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Debugf(strings.TrimSpace(format), v...)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Errorf(strings.TrimSpace(format), v...)
}
