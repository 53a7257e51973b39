// Package rbac materializes a user's permission-slug set from their roles,
// following parent-role inheritance. Resolution happens once per request; the
// resulting set is what every authorization check consults.
package rbac

import (
	"github.com/fredserel/Sistema-kanban/internal/models"

	"gorm.io/gorm"
)

// Resolve returns the flat set of permission slugs granted to the user
// through their active roles, including permissions inherited from parent
// roles. The parent walk is cycle-guarded.
func Resolve(db *gorm.DB, user *models.User) (map[string]bool, error) {
	slugs := map[string]bool{}
	if user == nil {
		return slugs, nil
	}

	seen := map[string]bool{}
	queue := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		queue = append(queue, r.ID)
	}

	for len(queue) > 0 {
		roleID := queue[0]
		queue = queue[1:]
		if seen[roleID] {
			continue
		}
		seen[roleID] = true

		var role models.Role
		err := db.Preload("Permissions").First(&role, "id = ?", roleID).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !role.IsActive {
			continue
		}

		for _, p := range role.Permissions {
			slugs[p.Slug] = true
		}
		if role.ParentID != nil {
			queue = append(queue, *role.ParentID)
		}
	}

	return slugs, nil
}
