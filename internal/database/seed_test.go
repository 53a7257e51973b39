package database

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

func newTestDB(t *testing.T) *gorm.DB {
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
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := Seed(db, "", ""); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Seed(db, "", ""); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var permCount int64
	if err := db.Model(&models.Permission{}).Count(&permCount).Error; err != nil {
		t.Fatalf("count permissions: %v", err)
	}
	if permCount != int64(len(permissionCatalog)) {
		t.Fatalf("expected %d permissions, got %d", len(permissionCatalog), permCount)
	}

	var roleCount int64
	if err := db.Model(&models.Role{}).Count(&roleCount).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if roleCount != 3 {
		t.Fatalf("expected 3 system roles, got %d", roleCount)
	}

	var adminCount int64
	if err := db.Model(&models.User{}).
		Where("is_super_admin = ?", true).
		Count(&adminCount).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if adminCount != 1 {
		t.Fatalf("expected exactly one default admin, got %d", adminCount)
	}
}

func TestSeedRoleHierarchy(t *testing.T) {
	db := newTestDB(t)

	if err := Seed(db, "boss@example.com", "secret123"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var manager models.Role
	if err := db.Preload("Permissions").Where("slug = ?", "manager").First(&manager).Error; err != nil {
		t.Fatalf("load manager: %v", err)
	}
	if manager.ParentID == nil {
		t.Fatal("expected manager to inherit from member")
	}

	var member models.Role
	if err := db.First(&member, "id = ?", *manager.ParentID).Error; err != nil {
		t.Fatalf("load parent: %v", err)
	}
	if member.Slug != "member" {
		t.Fatalf("expected member as parent, got %s", member.Slug)
	}

	var admin models.User
	if err := db.Where("email = ?", "boss@example.com").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !admin.IsSuperAdmin {
		t.Fatal("expected the seeded admin to be a super admin")
	}
}
