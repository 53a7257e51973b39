package settings

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/fredserel/Sistema-kanban/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c := New(db)
	if err := c.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLoadSeedsDefaults(t *testing.T) {
	c := newTestCache(t)

	if got := c.Get("smtp_port", ""); got != "587" {
		t.Fatalf("expected seeded smtp_port 587, got %q", got)
	}
	if got := c.Get("app_name", ""); got != "Kanban" {
		t.Fatalf("expected seeded app_name, got %q", got)
	}
}

func TestGetFallback(t *testing.T) {
	c := newTestCache(t)

	// smtp_host is seeded empty, so the fallback applies
	if got := c.Get("smtp_host", "mail.internal"); got != "mail.internal" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := c.Get("unknown_key", "x"); got != "x" {
		t.Fatalf("expected fallback for unknown key, got %q", got)
	}
}

func TestBulkUpdateRefreshesCache(t *testing.T) {
	c := newTestCache(t)

	err := c.BulkUpdate([]Update{
		{Key: "smtp_host", Value: "mail.example.com"},
		{Key: "no_such_key", Value: "ignored"},
	})
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}

	if got := c.Get("smtp_host", ""); got != "mail.example.com" {
		t.Fatalf("expected updated value, got %q", got)
	}
}

func TestEncryptedValuesMasked(t *testing.T) {
	c := newTestCache(t)

	if err := c.BulkUpdate([]Update{{Key: "smtp_password", Value: "hunter2"}}); err != nil {
		t.Fatalf("bulk update: %v", err)
	}

	all, err := c.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for _, s := range all {
		if s.Key == "smtp_password" && s.Value != masked {
			t.Fatalf("expected masked value, got %q", s.Value)
		}
	}

	// echoing the mask back must not overwrite the stored secret
	if err := c.BulkUpdate([]Update{{Key: "smtp_password", Value: masked}}); err != nil {
		t.Fatalf("bulk update mask: %v", err)
	}
	if got := c.Get("smtp_password", ""); got != "hunter2" {
		t.Fatalf("expected stored secret untouched, got %q", got)
	}
}
