package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	svc, err := Open(logger.Nop(), Config{Driver: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "md.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.Close()
	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", DriverSQLite, svc.Driver())
	}
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	// Idempotent.
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll again: %v", err)
	}
	for _, table := range []string{"meeting", "asset", "artefact", "employee"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	var fk int
	if err := svc.DB().Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil || fk != 1 {
		t.Fatalf("foreign keys: want=1 got=%d err=%v", fk, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.Nop(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := (Config{SQLitePath: "file:x?mode=memory"}).sqliteDSN(); got != "file:x?mode=memory&_foreign_keys=on&_busy_timeout=5000" {
		t.Fatalf("dsn: got=%q", got)
	}
	if got := (Config{}).sqliteDSN(); got != "meetingdesk.db?_foreign_keys=on&_busy_timeout=5000" {
		t.Fatalf("default dsn: got=%q", got)
	}
}
