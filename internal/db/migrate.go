package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoice-manager/internal/models"
)

// ConnectAndMigrate opens the configured database and brings the schema up to
// date. Postgres DSNs get golang-migrate SQL migrations when MIGRATIONS=1;
// sqlite and the default path use AutoMigrate (dev convenience).
//
// TranslateError is required: the numbering retry in the invoice service
// relies on gorm.ErrDuplicatedKey surfacing from the unique invoice_number
// index.
func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	if IsPostgresDSN(dsn) {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// Print a masked DSN once for diagnostics.
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)

	useSQL := strings.ToLower(os.Getenv("MIGRATIONS"))
	if IsPostgresDSN(dsn) && (useSQL == "1" || useSQL == "true" || useSQL == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range []interface{}{&models.User{}, &models.Invoice{}, &models.InvoiceItem{}} {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "invoices", "invoice_items"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		if err := Seed(db); err != nil {
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}
	return db, nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
