package workflow

// PermManageProjects is the generic elevated permission: holders may manage
// any project regardless of ownership, and may skip stages.
const PermManageProjects = "projects.update"

// Actor is the authenticated principal as seen by the engine: identity plus
// the permission-slug set already materialized by the auth middleware.
type Actor struct {
	ID           string
	IsSuperAdmin bool
	Permissions  map[string]bool
}

// Can reports whether the actor holds the permission slug. Super admins hold
// everything.
func (a Actor) Can(slug string) bool {
	if a.IsSuperAdmin {
		return true
	}
	return a.Permissions[slug]
}

// Elevated reports administrator-level privilege, above plain ownership.
func (a Actor) Elevated() bool {
	return a.Can(PermManageProjects)
}
