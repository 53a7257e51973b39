// Package workflow is the stage-transition engine: it owns every mutation of
// the per-project stage ledger and of the project's current-stage pointer,
// enforcing the lifecycle ordering rules and the permission/ownership checks
// that gate them. Each transition runs as one transaction; notifications are
// dispatched after commit and never fail a transition.
package workflow

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/models"
	"github.com/fredserel/Sistema-kanban/internal/notify"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Engine struct {
	db       *gorm.DB
	notifier notify.Service
}

func New(db *gorm.DB, notifier notify.Service) *Engine {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{db: db, notifier: notifier}
}

// Stage returns a single ledger entry by id.
func (e *Engine) Stage(stageID string) (*models.ProjectStage, error) {
	var stage models.ProjectStage
	err := e.db.Preload("BlockedBy").First(&stage, "id = ?", stageID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("stage not found")
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// Stages returns the project's ledger in canonical lifecycle order.
func (e *Engine) Stages(projectID string) ([]models.ProjectStage, error) {
	if _, err := e.project(projectID); err != nil {
		return nil, err
	}

	var stages []models.ProjectStage
	if err := e.db.Preload("BlockedBy").
		Where("project_id = ?", projectID).
		Find(&stages).Error; err != nil {
		return nil, err
	}

	sort.Slice(stages, func(i, j int) bool {
		return models.StageIndex(stages[i].StageName) < models.StageIndex(stages[j].StageName)
	})
	return stages, nil
}

// InitStages creates the full ledger for a new project inside the caller's
// transaction: first stage IN_PROGRESS, the rest PENDING. plans may carry
// optional planned dates keyed by stage name.
func InitStages(tx *gorm.DB, projectID string, plans map[models.StageName]StagePlan) error {
	for i, name := range models.StageOrder {
		status := models.StagePending
		if i == 0 {
			status = models.StageInProgress
		}
		stage := models.ProjectStage{
			ProjectID: projectID,
			StageName: name,
			Status:    status,
		}
		if plan, ok := plans[name]; ok {
			stage.PlannedStartDate = plan.PlannedStartDate
			stage.PlannedEndDate = plan.PlannedEndDate
		}
		if err := tx.Create(&stage).Error; err != nil {
			return err
		}
	}
	return nil
}

// StagePlan holds the optional planning dates supplied at project creation.
type StagePlan struct {
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
}

// ValidatePlan rejects plans whose start falls after their end.
func ValidatePlan(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return errInvalid("planned start date cannot be after planned end date")
	}
	return nil
}

// UpdatePlan changes a stage's planned dates. Gated by the manage check.
func (e *Engine) UpdatePlan(stageID string, actor Actor, start, end *time.Time) (*models.ProjectStage, error) {
	stage, err := e.Stage(stageID)
	if err != nil {
		return nil, err
	}
	if _, err := e.AuthorizeManage(stage.ProjectID, actor); err != nil {
		return nil, err
	}

	effStart, effEnd := stage.PlannedStartDate, stage.PlannedEndDate
	if start != nil {
		effStart = start
	}
	if end != nil {
		effEnd = end
	}
	if err := ValidatePlan(effStart, effEnd); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if start != nil {
		updates["planned_start_date"] = start
	}
	if end != nil {
		updates["planned_end_date"] = end
	}
	if len(updates) == 0 {
		return stage, nil
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectStage{}).
			Where("id = ?", stageID).
			Updates(updates).Error; err != nil {
			return err
		}
		return e.audit(tx, actor.ID, "stage", stageID, "update_plan",
			fmt.Sprintf("planning dates updated for stage %s", stage.StageName.Label()))
	})
	if err != nil {
		return nil, err
	}

	return e.Stage(stageID)
}

// Complete marks the stage done and advances the project to the next stage
// in the canonical order, if one exists. The stage before it must already be
// completed, so out-of-order completion can never leave two stages active.
// All precondition reads happen inside the transaction, on locked rows.
func (e *Engine) Complete(stageID string, actor Actor) (*models.ProjectStage, error) {
	stage, err := e.Stage(stageID)
	if err != nil {
		return nil, err
	}
	if _, err := e.AuthorizeManage(stage.ProjectID, actor); err != nil {
		return nil, err
	}

	now := time.Now()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, stage.ProjectID); err != nil {
			return err
		}

		var cur models.ProjectStage
		if err := tx.First(&cur, "id = ?", stageID).Error; err != nil {
			return err
		}
		if cur.Status == models.StageCompleted {
			return errRejected("stage is already completed")
		}
		if cur.Status == models.StageBlocked {
			return errRejected("stage is blocked, unblock it before completing")
		}

		idx := models.StageIndex(cur.StageName)
		if idx > 0 {
			prevName := models.StageOrder[idx-1]
			var prev models.ProjectStage
			if err := tx.Where("project_id = ? AND stage_name = ?", cur.ProjectID, prevName).
				First(&prev).Error; err != nil {
				return err
			}
			if prev.Status != models.StageCompleted {
				return errRejected(fmt.Sprintf("stage %s must be completed first", prevName.Label()))
			}
		}

		if err := tx.Model(&models.ProjectStage{}).
			Where("id = ?", stageID).
			Updates(map[string]interface{}{
				"status":          models.StageCompleted,
				"actual_end_date": now,
			}).Error; err != nil {
			return err
		}

		if idx >= 0 && idx < len(models.StageOrder)-1 {
			nextName := models.StageOrder[idx+1]

			var next models.ProjectStage
			if err := tx.Where("project_id = ? AND stage_name = ?", cur.ProjectID, nextName).
				First(&next).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{
				"status":        models.StageInProgress,
				"block_reason":  nil,
				"blocked_at":    nil,
				"blocked_by_id": nil,
			}
			if next.ActualStartDate == nil {
				updates["actual_start_date"] = now
			}
			if err := tx.Model(&next).Updates(updates).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Project{}).
				Where("id = ?", cur.ProjectID).
				Update("current_stage", nextName).Error; err != nil {
				return err
			}
		}

		return e.audit(tx, actor.ID, "stage", stageID, "complete",
			fmt.Sprintf("stage %s completed", cur.StageName.Label()))
	})
	if err != nil {
		return nil, err
	}

	log.Printf("stage completed: %s (project %s) by user %s", stageID, stage.ProjectID, actor.ID)
	return e.Stage(stageID)
}

// Block halts a stage with a mandatory reason. Completed stages cannot be
// blocked, and blocking is not stackable.
func (e *Engine) Block(stageID, reason string, actor Actor) (*models.ProjectStage, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errInvalid("block reason is required")
	}

	stage, err := e.Stage(stageID)
	if err != nil {
		return nil, err
	}
	if _, err := e.AuthorizeManage(stage.ProjectID, actor); err != nil {
		return nil, err
	}

	now := time.Now()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, stage.ProjectID); err != nil {
			return err
		}

		var cur models.ProjectStage
		if err := tx.First(&cur, "id = ?", stageID).Error; err != nil {
			return err
		}
		if cur.Status == models.StageCompleted {
			return errRejected("cannot block a completed stage")
		}
		if cur.Status == models.StageBlocked {
			return errRejected("stage is already blocked")
		}

		if err := tx.Model(&models.ProjectStage{}).
			Where("id = ?", stageID).
			Updates(map[string]interface{}{
				"status":        models.StageBlocked,
				"block_reason":  reason,
				"blocked_at":    now,
				"blocked_by_id": actor.ID,
			}).Error; err != nil {
			return err
		}
		return e.audit(tx, actor.ID, "stage", stageID, "block", reason)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("stage blocked: %s by user %s", stageID, actor.ID)
	return e.Stage(stageID)
}

// Unblock lifts a block. The stage returns to IN_PROGRESS when it is the
// project's current stage, otherwise back to PENDING so only one stage stays
// active. actualStartDate is untouched.
func (e *Engine) Unblock(stageID string, actor Actor) (*models.ProjectStage, error) {
	stage, err := e.Stage(stageID)
	if err != nil {
		return nil, err
	}
	if _, err := e.AuthorizeManage(stage.ProjectID, actor); err != nil {
		return nil, err
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, stage.ProjectID)
		if err != nil {
			return err
		}

		var cur models.ProjectStage
		if err := tx.First(&cur, "id = ?", stageID).Error; err != nil {
			return err
		}
		if cur.Status != models.StageBlocked {
			return errRejected("stage is not blocked")
		}

		status := models.StagePending
		if project.CurrentStage == cur.StageName {
			status = models.StageInProgress
		}

		if err := tx.Model(&models.ProjectStage{}).
			Where("id = ?", stageID).
			Updates(map[string]interface{}{
				"status":        status,
				"block_reason":  nil,
				"blocked_at":    nil,
				"blocked_by_id": nil,
			}).Error; err != nil {
			return err
		}
		return e.audit(tx, actor.ID, "stage", stageID, "unblock",
			fmt.Sprintf("stage %s unblocked", cur.StageName.Label()))
	})
	if err != nil {
		return nil, err
	}

	log.Printf("stage unblocked: %s by user %s", stageID, actor.ID)
	return e.Stage(stageID)
}

// lockProject re-reads the project inside tx with a row lock, so concurrent
// transitions on the same project serialize instead of interleaving their
// checks and writes. SQLite has no row locks; its single write connection
// already serializes, and the driver drops the clause there.
func lockProject(tx *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "id = ?", projectID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (e *Engine) audit(tx *gorm.DB, userID, entity, entityID, action, details string) error {
	return tx.Create(&models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}).Error
}
