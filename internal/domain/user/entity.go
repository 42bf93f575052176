package user

type Role string

const (
	RoleOwner    Role = "owner"    // Organisation owner - full access
	RoleManager  Role = "manager"  // Reviews and corrects attendance
	RoleEmployee Role = "employee" // Regular employee
)

// IsManager checks if the role is manager or owner
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}
