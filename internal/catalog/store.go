package catalog

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	nexaconfig "nexamediaserver/internal/config"
)

// Open establishes the gorm connection and runs AutoMigrate, mirroring the
// teacher's database.Initialize but driver-selectable (sqlite for the
// reference/test path, postgres for production), per the "database driver
// hook" design note for installing natural-sort behavior at connection
// open. Postgres has no portable way to register a Go collation function,
// so on postgres List orders sort_title with the database's own collation
// and the ordering is not natural-sort; see orderClause.
func Open(cfg *nexaconfig.Configuration) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Db.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.Db.Host, cfg.Db.User, cfg.Db.Password, cfg.Db.Name, cfg.Db.Port)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.Db.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.Db.Driver != "postgres" {
		if err := registerNaturalSortCollation(db); err != nil {
			return nil, fmt.Errorf("registering natural-sort collation: %w", err)
		}
	}

	if err := db.AutoMigrate(AllTables()...); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return db, nil
}

// registerNaturalSortCollation installs NATURALSORT as a SQLite collation so
// ORDER BY sort_title COLLATE NATURALSORT uses NaturalCompare, per the
// "Interceptors" design note ("a database driver hook that installs the
// natural-sort collation at connection open"). The pool is capped at one
// connection so every query runs on the connection that carries it.
func registerNaturalSortCollation(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	conn, err := sqlDB.Conn(context.Background())
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		type collationRegisterer interface {
			RegisterCollation(name string, cmp func(string, string) int) error
		}
		if reg, ok := driverConn.(collationRegisterer); ok {
			return reg.RegisterCollation("NATURALSORT", NaturalCompare)
		}
		return nil
	})
}
