package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/models"
	"github.com/fredserel/Sistema-kanban/internal/rbac"
	"github.com/fredserel/Sistema-kanban/internal/workflow"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey  = "CurrentUser"
	ctxActorKey = "CurrentActor"
)

// RequireAuth resolves the acting user from the bearer token (or, for
// browser sessions, the session cookie), materializes their permission set
// once, and attaches both to the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := userFromToken(c)
		if user == nil {
			user = userFromSession(c)
		}
		if user == nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"message":    "authentication required",
			})
			return
		}

		perms, err := rbac.Resolve(database.DB, user)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"statusCode": http.StatusInternalServerError,
				"message":    "failed to resolve permissions",
			})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxActorKey, workflow.Actor{
			ID:           user.ID,
			IsSuperAdmin: user.IsSuperAdmin,
			Permissions:  perms,
		})
		c.Next()
	}
}

// RequirePermission allows the request through when the actor holds any of
// the given slugs. Super admins always pass.
func RequirePermission(slugs ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		for _, slug := range slugs {
			if actor.Can(slug) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"statusCode": http.StatusForbidden,
			"message":    "permission denied, requires " + strings.Join(slugs, " or "),
		})
	}
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentActor returns the actor set by RequireAuth.
func CurrentActor(c *gin.Context) workflow.Actor {
	if v, ok := c.Get(ctxActorKey); ok {
		if a, ok := v.(workflow.Actor); ok {
			return a
		}
	}
	return workflow.Actor{}
}

// HashToken is the digest stored for bearer tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func userFromToken(c *gin.Context) *models.User {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return nil
	}

	var token models.AuthToken
	if err := database.DB.Where("token_hash = ?", HashToken(raw)).First(&token).Error; err != nil {
		return nil
	}
	if time.Now().After(token.ExpiresAt) {
		return nil
	}

	return loadUser(token.UserID)
}

func userFromSession(c *gin.Context) *models.User {
	sess := sessions.Default(c)
	uid, ok := sess.Get("user_id").(string)
	if !ok || uid == "" {
		return nil
	}
	return loadUser(uid)
}

func loadUser(id string) *models.User {
	var user models.User
	if err := database.DB.Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil
	}
	return &user
}
