package workflow

// Role names the responsibility an actor exercises in the maker-checker
// workflow. Admins may act in any role; the system role is reserved for
// the maintenance scheduler.
type Role string

const (
	RoleReporter   Role = "reporter"
	RoleValidator  Role = "validator"
	RoleDispatcher Role = "dispatcher"
	RoleTechnician Role = "technician"
	RoleVerifier   Role = "verifier"
	RoleAdmin      Role = "admin"
	RoleSystem     Role = "system"
)

// Actor identifies who invokes a workflow operation.
type Actor struct {
	NIK  string
	Name string
	Role Role
}

// SystemActor is the trusted identity the scheduler acts under.
var SystemActor = Actor{NIK: "SYSTEM", Name: "System Auto-Scheduler", Role: RoleSystem}

// can reports whether the actor may act in role r. Admin passes every
// role check except the ones a maker-checker rule tightens further.
func (a Actor) can(r Role) bool {
	return a.Role == r || a.Role == RoleAdmin
}
