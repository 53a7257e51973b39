package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/models"
	"github.com/fredserel/Sistema-kanban/internal/notify"

	"gorm.io/gorm"
)

// Move transfers the project to an arbitrary target stage. The shape of the
// move decides the rules:
//
//   - backward needs a justification;
//   - forward past the next stage (a skip) needs elevated privilege and a
//     justification;
//   - forward to the adjacent stage needs every earlier stage completed,
//     unless the actor is elevated.
//
// On success every stage before the target is COMPLETED, every stage after
// it (down to the former current stage on a backward move) is reset to
// PENDING, the target is the single IN_PROGRESS stage, and currentStage
// points at it. The team is notified after commit, best effort.
func (e *Engine) Move(projectID string, target models.StageName, actor Actor, justification string) (*models.Project, error) {
	if !target.Valid() {
		return nil, errInvalid(fmt.Sprintf("unknown stage %q", string(target)))
	}

	if _, err := e.AuthorizeManage(projectID, actor); err != nil {
		return nil, err
	}

	justification = strings.TrimSpace(justification)
	targetIdx := models.StageIndex(target)
	now := time.Now()

	// read for the post-commit announcement, set inside the transaction
	var fromStage models.StageName
	var title string

	err := e.db.Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		fromStage = project.CurrentStage
		title = project.Title
		currentIdx := models.StageIndex(project.CurrentStage)

		switch {
		case targetIdx == currentIdx:
			return errRejected(fmt.Sprintf("project is already at stage %s", target.Label()))

		case targetIdx < currentIdx:
			if justification == "" {
				return errRejected("justification required to go back")
			}

		case targetIdx > currentIdx+1:
			if !actor.Elevated() {
				return errRejected("skipping stages requires elevated privilege")
			}
			if justification == "" {
				return errRejected("justification required to skip stages")
			}
		}

		var stages []models.ProjectStage
		if err := tx.Where("project_id = ?", projectID).Find(&stages).Error; err != nil {
			return err
		}
		byName := make(map[models.StageName]models.ProjectStage, len(stages))
		for _, s := range stages {
			byName[s.StageName] = s
		}

		// A plain owner advancing to the adjacent stage must have finished
		// everything before it.
		if targetIdx > currentIdx && !actor.Elevated() {
			for i := 0; i < targetIdx; i++ {
				name := models.StageOrder[i]
				if s, ok := byName[name]; ok && s.Status != models.StageCompleted {
					return errRejected(fmt.Sprintf("stage %s must be completed first", name.Label()))
				}
			}
		}

		if targetIdx > currentIdx {
			// complete everything before the target
			for i := 0; i < targetIdx; i++ {
				s, ok := byName[models.StageOrder[i]]
				if !ok || s.Status == models.StageCompleted {
					continue
				}
				updates := map[string]interface{}{
					"status":        models.StageCompleted,
					"block_reason":  nil,
					"blocked_at":    nil,
					"blocked_by_id": nil,
				}
				if s.ActualEndDate == nil {
					updates["actual_end_date"] = now
				}
				if err := tx.Model(&models.ProjectStage{}).
					Where("id = ?", s.ID).
					Updates(updates).Error; err != nil {
					return err
				}
			}
		} else {
			// reset everything between the target and the former current stage
			for i := targetIdx + 1; i <= currentIdx; i++ {
				s, ok := byName[models.StageOrder[i]]
				if !ok {
					continue
				}
				if err := tx.Model(&models.ProjectStage{}).
					Where("id = ?", s.ID).
					Updates(map[string]interface{}{
						"status":            models.StagePending,
						"actual_start_date": nil,
						"actual_end_date":   nil,
						"block_reason":      nil,
						"blocked_at":        nil,
						"blocked_by_id":     nil,
					}).Error; err != nil {
					return err
				}
			}
		}

		targetStage, ok := byName[target]
		if !ok {
			return errNotFound("stage not found")
		}
		updates := map[string]interface{}{
			"status":          models.StageInProgress,
			"actual_end_date": nil,
			"block_reason":    nil,
			"blocked_at":      nil,
			"blocked_by_id":   nil,
		}
		if targetStage.ActualStartDate == nil {
			updates["actual_start_date"] = now
		}
		if err := tx.Model(&models.ProjectStage{}).
			Where("id = ?", targetStage.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			Update("current_stage", target).Error; err != nil {
			return err
		}

		details := fmt.Sprintf("moved from %s to %s", fromStage.Label(), target.Label())
		if justification != "" {
			details += ": " + justification
		}
		return e.audit(tx, actor.ID, "project", projectID, "move_stage", details)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("project %s moved %s -> %s by user %s", projectID, fromStage, target, actor.ID)

	go e.announceProjectMoved(projectID, title, fromStage, target, actor.ID)

	var updated models.Project
	if err := e.db.Preload("Stages").Preload("Owner").
		First(&updated, "id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// AnnounceMemberAdded notifies the team (plus the new member) that someone
// joined. Fire and forget.
func (e *Engine) AnnounceMemberAdded(projectID, addedUserID, addedByID string) {
	go func() {
		project, err := e.project(projectID)
		if err != nil {
			return
		}

		var added, by models.User
		if err := e.db.First(&added, "id = ?", addedUserID).Error; err != nil {
			return
		}
		if err := e.db.First(&by, "id = ?", addedByID).Error; err != nil {
			return
		}

		recipients, err := e.recipientEmails(projectID, project.OwnerID, addedByID)
		if err != nil {
			log.Printf("member-added notification skipped: %v", err)
			return
		}
		recipients = appendMissing(recipients, added.Email)
		if len(recipients) == 0 {
			return
		}

		if err := e.notifier.NotifyMemberAdded(context.Background(), notify.MemberAddedEvent{
			ProjectTitle:  project.Title,
			AddedUserName: added.Name,
			AddedByName:   by.Name,
			Recipients:    recipients,
		}); err != nil {
			log.Printf("member-added notification failed: %v", err)
		}
	}()
}

// AnnounceCommentAdded notifies the team about a new comment. Fire and
// forget.
func (e *Engine) AnnounceCommentAdded(projectID, authorID, content string) {
	go func() {
		project, err := e.project(projectID)
		if err != nil {
			return
		}

		var author models.User
		if err := e.db.First(&author, "id = ?", authorID).Error; err != nil {
			return
		}

		recipients, err := e.recipientEmails(projectID, project.OwnerID, authorID)
		if err != nil || len(recipients) == 0 {
			return
		}

		if err := e.notifier.NotifyCommentAdded(context.Background(), notify.CommentAddedEvent{
			ProjectTitle: project.Title,
			AuthorName:   author.Name,
			Content:      content,
			Recipients:   recipients,
		}); err != nil {
			log.Printf("comment notification failed: %v", err)
		}
	}()
}

func (e *Engine) announceProjectMoved(projectID, title string, from, to models.StageName, movedByID string) {
	var movedBy models.User
	if err := e.db.First(&movedBy, "id = ?", movedByID).Error; err != nil {
		return
	}

	project, err := e.project(projectID)
	if err != nil {
		return
	}

	recipients, err := e.recipientEmails(projectID, project.OwnerID, movedByID)
	if err != nil || len(recipients) == 0 {
		return
	}

	if err := e.notifier.NotifyProjectMoved(context.Background(), notify.ProjectMovedEvent{
		ProjectTitle: title,
		FromStage:    from.Label(),
		ToStage:      to.Label(),
		MovedByName:  movedBy.Name,
		Recipients:   recipients,
	}); err != nil {
		log.Printf("project-moved notification failed: %v", err)
	}
}

// recipientEmails collects the active owner and members of a project,
// excluding the acting user.
func (e *Engine) recipientEmails(projectID, ownerID, excludeUserID string) ([]string, error) {
	ids := map[string]bool{ownerID: true}

	var members []models.ProjectMember
	if err := e.db.Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		ids[m.UserID] = true
	}
	delete(ids, excludeUserID)

	if len(ids) == 0 {
		return nil, nil
	}

	userIDs := make([]string, 0, len(ids))
	for id := range ids {
		userIDs = append(userIDs, id)
	}

	var users []models.User
	if err := e.db.Where("id IN ? AND is_active = ?", userIDs, true).Find(&users).Error; err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return emails, nil
}

func appendMissing(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
