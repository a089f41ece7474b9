// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"messagely/internal/dbmysql"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite returns a migrated SQLite database in a temp dir with
// foreign keys enforced. It is closed when the test ends.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "messagely.db") + "?_foreign_keys=on"
	db, err := dbmysql.Open(sqlite.Open(dsn), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbmysql.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// OpenMock returns a MySQL-dialect gorm handle over go-sqlmock for
// exercising driver failures.
func OpenMock(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}

	db, err := dbmysql.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), false)
	if err != nil {
		t.Fatalf("open gorm over sqlmock: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db, mock
}
