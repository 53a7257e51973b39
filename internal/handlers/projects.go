package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"
	"github.com/fredserel/Sistema-kanban/internal/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type stagePlanRequest struct {
	StageName        models.StageName `json:"stageName"`
	PlannedStartDate *time.Time       `json:"plannedStartDate"`
	PlannedEndDate   *time.Time       `json:"plannedEndDate"`
}

type createProjectRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    models.Priority    `json:"priority"`
	Stages      []stagePlanRequest `json:"stages"`
}

// CreateProject creates the project together with its full stage ledger in
// one transaction: first stage IN_PROGRESS, the rest PENDING.
func CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if len(req.Title) < 3 {
		fail(c, http.StatusBadRequest, "project title must be at least 3 characters")
		return
	}

	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		fail(c, http.StatusBadRequest, "invalid priority")
		return
	}

	plans := map[models.StageName]workflow.StagePlan{}
	for _, p := range req.Stages {
		if !p.StageName.Valid() {
			fail(c, http.StatusBadRequest, "unknown stage "+string(p.StageName))
			return
		}
		if err := workflow.ValidatePlan(p.PlannedStartDate, p.PlannedEndDate); err != nil {
			handleError(c, err)
			return
		}
		plans[p.StageName] = workflow.StagePlan{
			PlannedStartDate: p.PlannedStartDate,
			PlannedEndDate:   p.PlannedEndDate,
		}
	}

	actor := middleware.CurrentActor(c)
	project := models.Project{
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		Priority:     req.Priority,
		CurrentStage: models.StageOrder[0],
		OwnerID:      actor.ID,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return workflow.InitStages(tx, project.ID, plans)
	})
	if err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(actor.ID, "project", project.ID, "create", "created project: "+project.Title)

	var full models.Project
	if err := database.DB.Preload("Owner").Preload("Stages").
		First(&full, "id = ?", project.ID).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, full)
}

// ListProjects supports the board filters: owner, member, priority, current
// stage, free-text search and delayed-only.
func ListProjects(c *gin.Context) {
	dbq := database.DB.
		Preload("Owner").
		Preload("Stages").
		Preload("Members.User").
		Order("updated_at desc")

	if ownerID := c.Query("ownerId"); ownerID != "" {
		dbq = dbq.Where("owner_id = ?", ownerID)
	}
	if memberID := c.Query("memberId"); memberID != "" {
		dbq = dbq.Where("id IN (?)", database.DB.
			Model(&models.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", memberID))
	}
	if priority := c.Query("priority"); priority != "" {
		dbq = dbq.Where("priority = ?", priority)
	}
	if stage := c.Query("currentStage"); stage != "" {
		dbq = dbq.Where("current_stage = ?", stage)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		dbq = dbq.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		handleError(c, err)
		return
	}

	if c.Query("delayed") == "true" {
		projects = filterDelayed(projects, time.Now())
	}

	c.JSON(http.StatusOK, projects)
}

// filterDelayed keeps projects whose active stage ran past its planned end.
func filterDelayed(projects []models.Project, now time.Time) []models.Project {
	var out []models.Project
	for _, p := range projects {
		for _, s := range p.Stages {
			if s.StageName != p.CurrentStage {
				continue
			}
			if s.PlannedEndDate != nil && s.PlannedEndDate.Before(now) && s.Status != models.StageCompleted {
				out = append(out, p)
			}
			break
		}
	}
	if out == nil {
		out = []models.Project{}
	}
	return out
}

// GetProject returns one project with its full relations. Visible to the
// owner, members and holders of projects.update.
func GetProject(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeView(id, actor); err != nil {
		handleError(c, err)
		return
	}

	var project models.Project
	if err := database.DB.
		Preload("Owner").
		Preload("Stages.BlockedBy").
		Preload("Members.User").
		Preload("Comments.User").
		First(&project, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

type updateProjectRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	OwnerID     *string          `json:"ownerId"`
}

// UpdateProject edits the project fields. Ownership reassignment needs
// elevated privilege.
func UpdateProject(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	project, err := engine.AuthorizeManage(id, actor)
	if err != nil {
		handleError(c, err)
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			fail(c, http.StatusBadRequest, "project title must be at least 3 characters")
			return
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			fail(c, http.StatusBadRequest, "invalid priority")
			return
		}
		updates["priority"] = *req.Priority
	}
	if req.OwnerID != nil && *req.OwnerID != project.OwnerID {
		if !actor.Elevated() {
			fail(c, http.StatusForbidden, "only administrators can reassign ownership")
			return
		}
		var owner models.User
		if err := database.DB.First(&owner, "id = ?", *req.OwnerID).Error; err != nil {
			fail(c, http.StatusNotFound, "new owner not found")
			return
		}
		updates["owner_id"] = owner.ID
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&models.Project{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			handleError(c, err)
			return
		}
		database.CreateAuditLog(actor.ID, "project", id, "update", "updated project: "+project.Title)
	}

	var full models.Project
	if err := database.DB.Preload("Owner").Preload("Stages").
		First(&full, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

// DeleteProject soft deletes: the project disappears from normal listings
// but stays recoverable from the trash.
func DeleteProject(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	project, err := engine.AuthorizeManage(id, actor)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := database.DB.Delete(&models.Project{}, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(actor.ID, "project", id, "delete", "moved to trash: "+project.Title)
	c.JSON(http.StatusOK, gin.H{"message": "project moved to trash"})
}

// ListTrash returns soft-deleted projects.
func ListTrash(c *gin.Context) {
	var projects []models.Project
	if err := database.DB.Unscoped().
		Preload("Owner").
		Where("deleted_at IS NOT NULL").
		Order("deleted_at desc").
		Find(&projects).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// RestoreProject brings a trashed project back.
func RestoreProject(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	var project models.Project
	if err := database.DB.Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		First(&project).Error; err != nil {
		fail(c, http.StatusNotFound, "project not found in trash")
		return
	}

	if err := database.DB.Unscoped().Model(&models.Project{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error; err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(actor.ID, "project", id, "restore", "restored from trash: "+project.Title)

	var full models.Project
	if err := database.DB.Preload("Owner").Preload("Stages").
		First(&full, "id = ?", id).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

// PurgeProject permanently removes a trashed project and its children.
func PurgeProject(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	var project models.Project
	if err := database.DB.Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		First(&project).Error; err != nil {
		fail(c, http.StatusNotFound, "project not found in trash")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectStage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(actor.ID, "project", id, "purge", "permanently deleted: "+project.Title)
	c.JSON(http.StatusOK, gin.H{"message": "project permanently deleted"})
}

type moveRequest struct {
	TargetStage   models.StageName `json:"targetStage"`
	Justification string           `json:"justification"`
}

// MoveProject delegates the arbitrary stage move to the engine.
func MoveProject(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := middleware.CurrentActor(c)
	project, err := engine.Move(c.Param("id"), req.TargetStage, actor, req.Justification)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}
