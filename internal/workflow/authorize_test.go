package workflow

import (
	"testing"

	"github.com/fredserel/Sistema-kanban/internal/models"
)

func TestAuthorizeManage(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	member := createUser(t, db, "member@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	project := createProject(t, db, owner.ID)

	if err := db.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    member.ID,
	}).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := e.AuthorizeManage(project.ID, ownerActor(owner)); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := e.AuthorizeManage(project.ID, adminActor(stranger)); err != nil {
		t.Fatalf("permission holder: %v", err)
	}
	if _, err := e.AuthorizeManage(project.ID, Actor{ID: stranger.ID, IsSuperAdmin: true}); err != nil {
		t.Fatalf("super admin: %v", err)
	}

	// plain membership does not grant manage rights
	_, err := e.AuthorizeManage(project.ID, ownerActor(member))
	wantKind(t, err, KindForbidden)

	_, err = e.AuthorizeManage(project.ID, ownerActor(stranger))
	wantKind(t, err, KindForbidden)

	_, err = e.AuthorizeManage("missing", ownerActor(owner))
	wantKind(t, err, KindNotFound)
}

func TestAuthorizeView(t *testing.T) {
	db := newTestDB(t)
	e := New(db, nil)
	owner := createUser(t, db, "owner@example.com")
	member := createUser(t, db, "member@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	project := createProject(t, db, owner.ID)

	if err := db.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    member.ID,
	}).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := e.AuthorizeView(project.ID, ownerActor(member)); err != nil {
		t.Fatalf("member: %v", err)
	}
	_, err := e.AuthorizeView(project.ID, ownerActor(stranger))
	wantKind(t, err, KindForbidden)
}
