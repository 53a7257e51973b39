package handlers

import (
	"net/http"
	"strings"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-gonic/gin"
)

// ListRoles returns active roles with their permissions and parent.
func ListRoles(c *gin.Context) {
	var roles []models.Role
	if err := database.DB.
		Preload("Permissions").
		Preload("Parent").
		Where("is_active = ?", true).
		Order("name asc").
		Find(&roles).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// GetRole returns one role with permissions and parent.
func GetRole(c *gin.Context) {
	var role models.Role
	if err := database.DB.
		Preload("Permissions").
		Preload("Parent").
		First(&role, "id = ?", c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "role not found")
		return
	}
	c.JSON(http.StatusOK, role)
}

type roleRequest struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	ParentID      *string  `json:"parentId"`
	PermissionIDs []string `json:"permissionIds"`
}

// CreateRole adds a custom role, optionally under a parent role.
func CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if req.Name == "" || req.Slug == "" {
		fail(c, http.StatusBadRequest, "name and slug are required")
		return
	}

	var existing models.Role
	if err := database.DB.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		fail(c, http.StatusConflict, "a role with this slug already exists")
		return
	}

	role := models.Role{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsActive:    true,
	}

	if req.ParentID != nil && *req.ParentID != "" {
		var parent models.Role
		if err := database.DB.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			fail(c, http.StatusNotFound, "parent role not found")
			return
		}
		role.ParentID = &parent.ID
	}

	if len(req.PermissionIDs) > 0 {
		var perms []models.Permission
		if err := database.DB.Where("id IN ?", req.PermissionIDs).Find(&perms).Error; err != nil {
			handleError(c, err)
			return
		}
		role.Permissions = perms
	}

	if err := database.DB.Create(&role).Error; err != nil {
		handleError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "role", role.ID, "create", "created role: "+role.Slug)
	c.JSON(http.StatusCreated, role)
}

// UpdateRole edits a custom role. System roles are read-only.
func UpdateRole(c *gin.Context) {
	id := c.Param("id")

	var role models.Role
	if err := database.DB.First(&role, "id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "role not found")
		return
	}
	if role.IsSystem {
		fail(c, http.StatusConflict, "system roles cannot be modified")
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		role.Name = name
	}
	role.Description = req.Description

	if req.ParentID != nil {
		if *req.ParentID == "" {
			role.ParentID = nil
		} else {
			if *req.ParentID == role.ID {
				fail(c, http.StatusBadRequest, "a role cannot be its own parent")
				return
			}
			var parent models.Role
			if err := database.DB.First(&parent, "id = ?", *req.ParentID).Error; err != nil {
				fail(c, http.StatusNotFound, "parent role not found")
				return
			}
			role.ParentID = &parent.ID
		}
	}

	if err := database.DB.Save(&role).Error; err != nil {
		handleError(c, err)
		return
	}

	if req.PermissionIDs != nil {
		var perms []models.Permission
		if len(req.PermissionIDs) > 0 {
			if err := database.DB.Where("id IN ?", req.PermissionIDs).Find(&perms).Error; err != nil {
				handleError(c, err)
				return
			}
		}
		if err := database.DB.Model(&role).Association("Permissions").Replace(perms); err != nil {
			handleError(c, err)
			return
		}
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "role", id, "update", "updated role: "+role.Slug)

	var full models.Role
	if err := database.DB.Preload("Permissions").Preload("Parent").
		First(&full, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

// DeleteRole soft deletes a custom role. System roles are protected.
func DeleteRole(c *gin.Context) {
	id := c.Param("id")

	var role models.Role
	if err := database.DB.First(&role, "id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "role not found")
		return
	}
	if role.IsSystem {
		fail(c, http.StatusConflict, "system roles cannot be deleted")
		return
	}

	if err := database.DB.Delete(&role).Error; err != nil {
		handleError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "role", id, "delete", "deleted role: "+role.Slug)
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}

// ListPermissions returns the permission catalog grouped by resource.
func ListPermissions(c *gin.Context) {
	var perms []models.Permission
	if err := database.DB.
		Order("resource asc, action asc").
		Find(&perms).Error; err != nil {
		handleError(c, err)
		return
	}

	grouped := map[string][]models.Permission{}
	for _, p := range perms {
		grouped[p.Resource] = append(grouped[p.Resource], p)
	}
	c.JSON(http.StatusOK, grouped)
}
