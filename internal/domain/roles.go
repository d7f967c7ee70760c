package domain

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleWorker     Role = "worker"
	RoleCompany    Role = "company"
	RoleIndividual Role = "individual"
)

// AllowedRoles is the closed set of roles an account may hold.
var AllowedRoles = []Role{RoleAdmin, RoleWorker, RoleCompany, RoleIndividual}

func ValidRole(r Role) bool {
	for _, a := range AllowedRoles {
		if r == a {
			return true
		}
	}
	return false
}

// RoleList is stored as jsonb on the user row.
type RoleList []Role

func (rl RoleList) Contains(r Role) bool {
	for _, have := range rl {
		if have == r {
			return true
		}
	}
	return false
}

// Add appends r if absent and reports whether the list changed.
func (rl *RoleList) Add(r Role) bool {
	if rl.Contains(r) {
		return false
	}
	*rl = append(*rl, r)
	return true
}
