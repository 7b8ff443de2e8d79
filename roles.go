package auth

// UserRole is the user's role
type UserRole string

const (
	// RoleStudent is assigned to every self-registered account
	RoleStudent UserRole = "student"
	// RoleAdmin manages users, courses, exams and settings
	RoleAdmin UserRole = "admin"
)

// Permission names returned to the admin dashboard
const (
	PermManageUsers    = "manage_users"
	PermManageCourses  = "manage_courses"
	PermManageExams    = "manage_exams"
	PermManageSettings = "manage_settings"
)

// RolePermissions is the static capability set per role. It is not backed
// by any stored policy.
var RolePermissions = map[UserRole][]string{
	RoleAdmin: {
		PermManageUsers,
		PermManageCourses,
		PermManageExams,
		PermManageSettings,
	},
}

var roleHierarchy = map[UserRole]int{
	RoleStudent: 0,
	RoleAdmin:   1,
}

func (r UserRole) String() string {
	return string(r)
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Permissions returns a copy of the capability set for r, nil if none
func (r UserRole) Permissions() []string {
	perms, ok := RolePermissions[r]
	if !ok || len(perms) == 0 {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
