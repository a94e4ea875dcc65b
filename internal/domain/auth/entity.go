package auth

type Role string

const (
	RoleOwner    Role = "owner"    // company owner
	RoleManager  Role = "manager"  // reviews corrections and exceptions, publishes schedules
	RoleEmployee Role = "employee" // clocks in and out for themself
)

func (r Role) IsManager() bool {
	return r == RoleOwner || r == RoleManager
}

// Token types carried in the "type" claim.
const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"
)

// Claims is the identity this service reads from a verified bearer token.
// Tokens are issued by the HR system; this service only consumes them.
type Claims struct {
	UserID     string
	CompanyID  string
	EmployeeID *string
	Role       Role
}

// CanActFor reports whether the caller may read or write employeeID's data
// without consulting the employee directory. Managers still need the
// employee's company checked.
func (c Claims) CanActFor(employeeID string) bool {
	return c.EmployeeID != nil && *c.EmployeeID == employeeID
}
