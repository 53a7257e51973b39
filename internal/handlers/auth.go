package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenTTL        = 30 * 24 * time.Hour
	maxLoginFailure = 5
	lockoutDuration = 30 * time.Minute
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a regular account with the member role.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var problems []string
	if len(req.Name) < 2 {
		problems = append(problems, "name must be at least 2 characters")
	}
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "invalid email address")
	}
	if len(req.Password) < 6 {
		problems = append(problems, "password must be at least 6 characters")
	}
	if len(problems) > 0 {
		failDetails(c, http.StatusBadRequest, "validation failed", problems)
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
		IsActive:     true,
	}

	var memberRole models.Role
	if err := database.DB.Where("slug = ?", "member").First(&memberRole).Error; err == nil {
		user.Roles = []models.Role{memberRole}
	}

	if err := database.DB.Create(&user).Error; err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(user.ID, "user", user.ID, "register", "account created: "+user.Email)
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a bearer token. Five consecutive
// failures lock the account for thirty minutes.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.DB.Preload("Roles.Permissions").Where("email = ?", email).First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !user.IsActive {
		fail(c, http.StatusForbidden, "account is disabled")
		return
	}
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		fail(c, http.StatusForbidden, "account is locked, try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		registerFailedLogin(&user)
		fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	now := time.Now()
	database.DB.Model(&user).Updates(map[string]interface{}{
		"last_login":            now,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	})

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		handleError(c, err)
		return
	}
	token := hex.EncodeToString(raw)

	if err := database.DB.Create(&models.AuthToken{
		TokenHash: middleware.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(tokenTTL),
	}).Error; err != nil {
		handleError(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func registerFailedLogin(user *models.User) {
	attempts := user.FailedLoginAttempts + 1
	updates := map[string]interface{}{"failed_login_attempts": attempts}
	if attempts >= maxLoginFailure {
		updates["locked_until"] = time.Now().Add(lockoutDuration)
	}
	database.DB.Model(user).Updates(updates)
}

// Logout revokes the presented bearer token and clears the session.
func Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw != "" {
			database.DB.Where("token_hash = ?", middleware.HashToken(raw)).Delete(&models.AuthToken{})
		}
	}

	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user plus the materialized permission set.
func Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	actor := middleware.CurrentActor(c)
	slugs := make([]string, 0, len(actor.Permissions))
	for slug := range actor.Permissions {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	var full models.User
	if err := database.DB.Preload("Roles.Permissions").First(&full, "id = ?", user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fail(c, http.StatusNotFound, "user not found")
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": full, "permissions": slugs})
}
