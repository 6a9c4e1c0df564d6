package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	app "recipeserv/src/app"
	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
)

const defaultSQLiteDSN = "file:recipes.db"

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logging.Debug().Str("component", "gorm").Msgf(format, args...)
}

// OpenDatabase connects to the configured driver and migrates the schema.
func OpenDatabase(config cfg.DatabaseProperties) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case "postgres":
		dialector = postgres.Open(config.PostgresDSN())
	case "sqlite":
		dsn := config.DSN
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if config.Driver == "sqlite" {
		// one connection keeps :memory: databases shared and serialises writers
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&app.User{},
		&app.Tag{},
		&app.Ingredient{},
		&app.Recipe{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logging.Error().Err(err).Msg("failed to retrieve sql.DB")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing the database connection")
	}
}

// translate maps driver errors onto the domain errors handlers understand.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return app.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return app.ErrConflict
	default:
		return err
	}
}
