package handlers

import (
	"net/http"
	"strings"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ListUsers supports a free-text search over name and email.
func ListUsers(c *gin.Context) {
	dbq := database.DB.Preload("Roles").Order("created_at desc")

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		dbq = dbq.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var users []models.User
	if err := dbq.Find(&users).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one user with roles and permissions.
func GetUser(c *gin.Context) {
	var user models.User
	if err := database.DB.Preload("Roles.Permissions").
		First(&user, "id = ?", c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

type createUserRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone"`
	RoleIDs  []string `json:"roleIds"`
}

// CreateUser adds an account, optionally with roles.
func CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Name) < 2 || !strings.Contains(req.Email, "@") || len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "name, valid email and a password of at least 6 characters are required")
		return
	}

	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		fail(c, http.StatusConflict, "email is already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		handleError(c, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		IsActive:     true,
	}

	if len(req.RoleIDs) > 0 {
		var roles []models.Role
		if err := database.DB.Where("id IN ?", req.RoleIDs).Find(&roles).Error; err != nil {
			handleError(c, err)
			return
		}
		user.Roles = roles
	}

	if err := database.DB.Create(&user).Error; err != nil {
		handleError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "user", user.ID, "create", "created user: "+user.Email)
	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
	IsActive  *bool   `json:"isActive"`
}

// UpdateUser edits account fields; a provided password is re-hashed.
func UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			fail(c, http.StatusBadRequest, "name is too short")
			return
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.Contains(email, "@") {
			fail(c, http.StatusBadRequest, "invalid email address")
			return
		}
		var other models.User
		if err := database.DB.Where("email = ? AND id <> ?", email, id).First(&other).Error; err == nil {
			fail(c, http.StatusConflict, "email is already in use")
			return
		}
		updates["email"] = email
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			fail(c, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			handleError(c, err)
			return
		}
		updates["password_hash"] = string(hash)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			handleError(c, err)
			return
		}
		actor := middleware.CurrentActor(c)
		database.CreateAuditLog(actor.ID, "user", id, "update", "updated user: "+user.Email)
	}

	var full models.User
	if err := database.DB.Preload("Roles").First(&full, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

// DeleteUser soft deletes the account and revokes its tokens.
func DeleteUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}

	actor := middleware.CurrentActor(c)
	if actor.ID == id {
		fail(c, http.StatusConflict, "cannot delete your own account")
		return
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		handleError(c, err)
		return
	}
	database.DB.Where("user_id = ?", id).Delete(&models.AuthToken{})

	database.CreateAuditLog(actor.ID, "user", id, "delete", "deleted user: "+user.Email)
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

type assignRolesRequest struct {
	RoleIDs []string `json:"roleIds"`
}

// AssignRoles replaces the user's role set.
func AssignRoles(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}

	var req assignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var roles []models.Role
	if len(req.RoleIDs) > 0 {
		if err := database.DB.Where("id IN ?", req.RoleIDs).Find(&roles).Error; err != nil {
			handleError(c, err)
			return
		}
		if len(roles) != len(req.RoleIDs) {
			fail(c, http.StatusNotFound, "one or more roles not found")
			return
		}
	}

	if err := database.DB.Model(&user).Association("Roles").Replace(roles); err != nil {
		handleError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "user", id, "assign_roles", "roles reassigned for: "+user.Email)

	var full models.User
	if err := database.DB.Preload("Roles.Permissions").First(&full, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}
