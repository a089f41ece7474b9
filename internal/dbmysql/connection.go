package dbmysql

import (
	"fmt"
	"time"

	"messagely/internal/config"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured database, tunes the pool and migrates
// the users and messages tables. The returned func closes the pool.
func NewDatabase(cnf *config.Config) (*gorm.DB, func(), error) {
	var dialector gorm.Dialector
	switch cnf.Database.Driver {
	case config.DriverMySQL, "":
		dialector = mysql.Open(cnf.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cnf.DSN())
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cnf.Database.Driver)
	}

	db, err := Open(dialector, cnf.Logging.Level == "debug")
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	logrus.WithField("driver", cnf.Database.Driver).Info("Connected to database successfully")

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
	return db, cleanup, nil
}

// Open wraps gorm.Open with the SQL logger bridged onto logrus.
func Open(dialector gorm.Dialector, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users and messages tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
