package database

import (
	"log"

	"github.com/fredserel/Sistema-kanban/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedPermission struct {
	Resource    string
	Action      string
	Description string
}

var permissionCatalog = []seedPermission{
	{"users", "create", "Create users"},
	{"users", "read", "List and view users"},
	{"users", "update", "Edit users and assign roles"},
	{"users", "delete", "Deactivate users"},
	{"projects", "create", "Create projects"},
	{"projects", "read", "List and view projects"},
	{"projects", "update", "Edit any project and manage its stages"},
	{"projects", "delete", "Delete and restore projects"},
	{"stages", "read", "View project stages"},
	{"stages", "update", "Update stage planning dates"},
	{"roles", "create", "Create roles"},
	{"roles", "read", "List roles"},
	{"roles", "update", "Edit roles"},
	{"roles", "delete", "Delete roles"},
	{"permissions", "read", "List the permission catalog"},
	{"settings", "read", "View settings"},
	{"settings", "update", "Edit settings"},
	{"audit", "read", "View the audit log"},
}

// Seed creates the permission catalog, the system roles and the default
// super admin. Safe to run repeatedly.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	byName := map[string]models.Permission{}
	for _, def := range permissionCatalog {
		slug := def.Resource + "." + def.Action
		var perm models.Permission
		err := db.Where("slug = ?", slug).First(&perm).Error
		if err == gorm.ErrRecordNotFound {
			perm = models.Permission{
				Resource:    def.Resource,
				Action:      def.Action,
				Slug:        slug,
				Description: def.Description,
			}
			if err := db.Create(&perm).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		byName[slug] = perm
	}

	member, err := seedRole(db, models.Role{
		Name: "Member", Slug: "member", IsSystem: true,
		Description: "Read access to projects and stages",
	}, pick(byName, "projects.read", "stages.read", "users.read"))
	if err != nil {
		return err
	}

	managerPerms := pick(byName,
		"projects.create", "projects.update", "projects.delete",
		"stages.update", "audit.read")
	manager, err := seedRole(db, models.Role{
		Name: "Manager", Slug: "manager", IsSystem: true,
		Description: "Manages projects; inherits member access",
		ParentID:    &member.ID,
	}, managerPerms)
	if err != nil {
		return err
	}

	var all []models.Permission
	for _, p := range byName {
		all = append(all, p)
	}
	if _, err := seedRole(db, models.Role{
		Name: "Administrator", Slug: "admin", IsSystem: true,
		Description: "Full access",
		ParentID:    &manager.ID,
	}, all); err != nil {
		return err
	}

	return seedDefaultAdmin(db, adminEmail, adminPassword)
}

func pick(byName map[string]models.Permission, slugs ...string) []models.Permission {
	var out []models.Permission
	for _, s := range slugs {
		if p, ok := byName[s]; ok {
			out = append(out, p)
		}
	}
	return out
}

func seedRole(db *gorm.DB, role models.Role, perms []models.Permission) (*models.Role, error) {
	var existing models.Role
	err := db.Where("slug = ?", role.Slug).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	role.IsActive = true
	role.Permissions = perms
	if err := db.Create(&role).Error; err != nil {
		return nil, err
	}
	log.Printf("created system role: %s", role.Slug)
	return &role, nil
}

// admin comes from env only, never from the API
func seedDefaultAdmin(db *gorm.DB, email, password string) error {
	if email == "" {
		email = "admin@kanban.local"
	}
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("is_super_admin = ?", true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var adminRole models.Role
	if err := db.Where("slug = ?", "admin").First(&adminRole).Error; err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsSuperAdmin: true,
		Roles:        []models.Role{adminRole},
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("created default admin user: %s", email)
	return nil
}
