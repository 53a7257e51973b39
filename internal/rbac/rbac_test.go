package rbac

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/fredserel/Sistema-kanban/internal/database"
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
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createPermission(t *testing.T, db *gorm.DB, resource, action string) models.Permission {
	t.Helper()
	perm := models.Permission{
		Resource: resource,
		Action:   action,
		Slug:     resource + "." + action,
	}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("create permission: %v", err)
	}
	return perm
}

func TestResolveInheritsParentPermissions(t *testing.T) {
	db := newTestDB(t)

	read := createPermission(t, db, "projects", "read")
	update := createPermission(t, db, "projects", "update")

	parent := models.Role{
		Name: "Member", Slug: "member", IsActive: true,
		Permissions: []models.Permission{read},
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child := models.Role{
		Name: "Manager", Slug: "manager", IsActive: true,
		ParentID:    &parent.ID,
		Permissions: []models.Permission{update},
	}
	if err := db.Create(&child).Error; err != nil {
		t.Fatalf("create child: %v", err)
	}

	user := models.User{
		Name: "U", Email: "u@example.com", PasswordHash: "x", IsActive: true,
		Roles: []models.Role{child},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	slugs, err := Resolve(db, &user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !slugs["projects.update"] {
		t.Fatal("expected the role's own permission")
	}
	if !slugs["projects.read"] {
		t.Fatal("expected the inherited parent permission")
	}
}

func TestResolveSkipsInactiveRoles(t *testing.T) {
	db := newTestDB(t)

	read := createPermission(t, db, "projects", "read")
	role := models.Role{
		Name: "Disabled", Slug: "disabled", IsActive: false,
		Permissions: []models.Permission{read},
	}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("create role: %v", err)
	}

	user := models.User{
		Name: "U", Email: "u@example.com", PasswordHash: "x", IsActive: true,
		Roles: []models.Role{role},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	slugs, err := Resolve(db, &user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(slugs) != 0 {
		t.Fatalf("expected no permissions from an inactive role, got %v", slugs)
	}
}

func TestResolveSurvivesParentCycle(t *testing.T) {
	db := newTestDB(t)

	read := createPermission(t, db, "projects", "read")

	a := models.Role{Name: "A", Slug: "a", IsActive: true, Permissions: []models.Permission{read}}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create a: %v", err)
	}
	b := models.Role{Name: "B", Slug: "b", IsActive: true, ParentID: &a.ID}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create b: %v", err)
	}
	// close the loop
	if err := db.Model(&a).Update("parent_id", b.ID).Error; err != nil {
		t.Fatalf("close cycle: %v", err)
	}

	user := models.User{
		Name: "U", Email: "u@example.com", PasswordHash: "x", IsActive: true,
		Roles: []models.Role{b},
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	slugs, err := Resolve(db, &user)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !slugs["projects.read"] {
		t.Fatal("expected the permission from the cycle to resolve once")
	}
}

func TestResolveNilUser(t *testing.T) {
	db := newTestDB(t)
	slugs, err := Resolve(db, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(slugs) != 0 {
		t.Fatal("expected an empty set")
	}
}
