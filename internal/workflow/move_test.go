package workflow

import (
	"testing"

	"github.com/fredserel/Sistema-kanban/internal/models"
)

func TestMoveSameStageRejected(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)

	_, err := e.Move(project.ID, models.StageNotStarted, ownerActor(owner), "")
	wantKind(t, err, KindRejected)
}

func TestMoveUnknownStageInvalid(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)

	_, err := e.Move(project.ID, "SHIPPING", ownerActor(owner), "")
	wantKind(t, err, KindInvalid)
}

func TestMoveBackwardRequiresJustification(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)
	actor := ownerActor(owner)

	first := stageByName(t, e, project.ID, models.StageNotStarted)
	if _, err := e.Complete(first.ID, actor); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := e.Move(project.ID, models.StageNotStarted, actor, "")
	wantKind(t, err, KindRejected)

	moved, err := e.Move(project.ID, models.StageNotStarted, actor, "scope changed")
	if err != nil {
		t.Fatalf("move back: %v", err)
	}
	if moved.CurrentStage != models.StageNotStarted {
		t.Fatalf("expected current stage %s, got %s", models.StageNotStarted, moved.CurrentStage)
	}
}

func TestMoveBackwardResetsIntermediateStages(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)
	actor := ownerActor(owner)

	// advance to IT_MODELING by completing the first two stages
	for _, name := range []models.StageName{models.StageNotStarted, models.StageBusinessModeling} {
		s := stageByName(t, e, project.ID, name)
		if _, err := e.Complete(s.ID, actor); err != nil {
			t.Fatalf("complete %s: %v", name, err)
		}
	}

	if _, err := e.Move(project.ID, models.StageNotStarted, actor, "restart"); err != nil {
		t.Fatalf("move back: %v", err)
	}

	target := stageByName(t, e, project.ID, models.StageNotStarted)
	if target.Status != models.StageInProgress {
		t.Fatalf("expected target IN_PROGRESS, got %s", target.Status)
	}
	if target.ActualEndDate != nil {
		t.Fatal("expected target actual end date cleared")
	}

	for _, name := range []models.StageName{models.StageBusinessModeling, models.StageITModeling} {
		s := stageByName(t, e, project.ID, name)
		if s.Status != models.StagePending {
			t.Fatalf("expected %s reset to PENDING, got %s", name, s.Status)
		}
		if s.ActualStartDate != nil || s.ActualEndDate != nil {
			t.Fatalf("expected %s actual dates cleared", name)
		}
	}

	// stages after the former current stage are untouched
	later := stageByName(t, e, project.ID, models.StageDevelopment)
	if later.Status != models.StagePending {
		t.Fatalf("expected later stage untouched PENDING, got %s", later.Status)
	}
}

func TestMoveSkipNeedsElevationAndJustification(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)

	// a plain owner cannot skip at all
	_, err := e.Move(project.ID, models.StageDevelopment, ownerActor(owner), "deadline")
	wantKind(t, err, KindRejected)

	// elevation alone is not enough
	admin := adminActor(owner)
	_, err = e.Move(project.ID, models.StageDevelopment, admin, "")
	wantKind(t, err, KindRejected)

	moved, err := e.Move(project.ID, models.StageDevelopment, admin, "contract signed late")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if moved.CurrentStage != models.StageDevelopment {
		t.Fatalf("expected current stage %s, got %s", models.StageDevelopment, moved.CurrentStage)
	}

	// everything before the target is completed by the skip
	for _, name := range []models.StageName{models.StageNotStarted, models.StageBusinessModeling, models.StageITModeling} {
		s := stageByName(t, e, project.ID, name)
		if s.Status != models.StageCompleted {
			t.Fatalf("expected %s COMPLETED after skip, got %s", name, s.Status)
		}
		if s.ActualEndDate == nil {
			t.Fatalf("expected %s actual end date set", name)
		}
	}
}

func TestMoveForwardAdjacentRequiresCompletion(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)
	actor := ownerActor(owner)

	// first stage is still IN_PROGRESS: a plain owner cannot advance past it
	_, err := e.Move(project.ID, models.StageBusinessModeling, actor, "")
	wantKind(t, err, KindRejected)

	first := stageByName(t, e, project.ID, models.StageNotStarted)
	if _, err := e.Complete(first.ID, actor); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// now at BUSINESS_MODELING; moving to IT_MODELING is adjacent but the
	// current stage is unfinished
	_, err = e.Move(project.ID, models.StageITModeling, actor, "")
	wantKind(t, err, KindRejected)

	// elevated actors are exempt from the completion requirement
	if _, err := e.Move(project.ID, models.StageITModeling, adminActor(owner), ""); err != nil {
		t.Fatalf("elevated adjacent move: %v", err)
	}
}

func TestMoveClearsBlocksOnPassedStages(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID)
	admin := adminActor(owner)

	first := stageByName(t, e, project.ID, models.StageNotStarted)
	if _, err := e.Block(first.ID, "stuck", admin); err != nil {
		t.Fatalf("block: %v", err)
	}

	if _, err := e.Move(project.ID, models.StageITModeling, admin, "override"); err != nil {
		t.Fatalf("move: %v", err)
	}

	passed := stageByName(t, e, project.ID, models.StageNotStarted)
	if passed.Status != models.StageCompleted {
		t.Fatalf("expected COMPLETED, got %s", passed.Status)
	}
	if passed.BlockReason != nil || passed.BlockedAt != nil || passed.BlockedByID != nil {
		t.Fatal("expected block fields cleared on the passed stage")
	}
}

func TestMoveAuthorization(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	project := createProject(t, db, owner.ID)

	_, err := e.Move(project.ID, models.StageBusinessModeling, ownerActor(stranger), "")
	wantKind(t, err, KindForbidden)

	_, err = e.Move("missing", models.StageBusinessModeling, ownerActor(owner), "")
	wantKind(t, err, KindNotFound)

	// super admin passes without any permission slug
	super := Actor{ID: stranger.ID, IsSuperAdmin: true}
	if _, err := e.Move(project.ID, models.StageDevelopment, super, "priority shift"); err != nil {
		t.Fatalf("super admin move: %v", err)
	}
}
