package models

// Status is one of the fixed report statuses. The values match the seeded
// statuses table rows, so a status id coming from the API maps directly.
type Status int64

const (
	StatusPending    Status = 1
	StatusInProgress Status = 2
	StatusResolved   Status = 3
)

// statusRanks defines the one-directional progression order. A report may only
// move to a status with a strictly higher rank.
var statusRanks = map[Status]int{
	StatusPending:    1,
	StatusInProgress: 2,
	StatusResolved:   3,
}

var statusLabels = map[Status]string{
	StatusPending:    "pendente",
	StatusInProgress: "em resolução",
	StatusResolved:   "resolvido",
}

// StatusFromID resolves a status id to a known Status
func StatusFromID(id int64) (Status, bool) {
	s := Status(id)
	_, ok := statusRanks[s]
	return s, ok
}

// AllStatuses returns every known status in rank order
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusResolved}
}

// Rank returns the progression rank of the status
func (s Status) Rank() int {
	return statusRanks[s]
}

// Label returns the user-facing status label
func (s Status) Label() string {
	return statusLabels[s]
}

// Role is one of the fixed user roles, matching the seeded roles table rows
type Role int64

const (
	RoleUser    Role = 1
	RoleAdmin   Role = 2
	RoleCurator Role = 3
)

var roleNames = map[Role]string{
	RoleUser:    "user",
	RoleAdmin:   "admin",
	RoleCurator: "curator",
}

// RoleFromID resolves a role id to a known Role
func RoleFromID(id int64) (Role, bool) {
	r := Role(id)
	_, ok := roleNames[r]
	return r, ok
}

// Name returns the role name
func (r Role) Name() string {
	return roleNames[r]
}

// CanManageReports reports whether the role is allowed to change report
// statuses, add report details and access the dashboard
func (r Role) CanManageReports() bool {
	return r == RoleAdmin || r == RoleCurator
}
