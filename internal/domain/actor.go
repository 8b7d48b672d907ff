package domain

const RoleAdmin = "admin"

// Actor is the authenticated caller of a service operation. The scheduler
// runs as SystemActor.
type Actor struct {
	UserID int64
	Roles  []string
	System bool
}

var SystemActor = Actor{System: true}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is true for platform admins and the system actor.
func (a Actor) IsAdmin() bool {
	return a.System || a.HasRole(RoleAdmin)
}
