package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/kangback324/board/internal/config"
	"github.com/kangback324/board/internal/middleware"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations over a dedicated connection.
type Migrator struct {
	m     *migrate.Migrate
	sqlDB *sql.DB
}

// NewMigrator opens a dedicated connection for cfg and prepares the migration
// set for its driver. Call Close when done.
func NewMigrator(cfg *config.Config) (*Migrator, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect for migrations: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	driver, err := migrationDriver(cfg, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+cfg.DBDriver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.DBDriver, driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	return &Migrator{m: m, sqlDB: sqlDB}, nil
}

func migrationDriver(cfg *config.Config, sqlDB *sql.DB) (migratedb.Driver, error) {
	var (
		driver migratedb.Driver
		err    error
	)
	switch cfg.DBDriver {
	case config.DriverPostgres:
		driver, err = migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{DatabaseName: cfg.DBName})
	case config.DriverMySQL:
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{DatabaseName: cfg.DBName})
	case config.DriverSQLite:
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", cfg.DBDriver, err)
	}
	return driver, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations; steps <= 0 rolls back all.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version returns the applied schema version and whether it is dirty.
// A database with no migrations applied reports version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	_ = mg.sqlDB.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations brings the schema for cfg up to date.
func RunMigrations(cfg *config.Config) error {
	mg, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			middleware.Logger.Warn("failed to close migration connection", "error", err)
		}
	}()

	if err := mg.Up(); err != nil {
		return err
	}
	version, _, err := mg.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	middleware.Logger.Info("Database migration completed", "version", version)
	return nil
}
