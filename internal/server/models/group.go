package models

// Group is a named role label such as "admin", "manager" or "worker".
type Group struct {
	ID   string
	Name string
}

// Well-known group names seeded by the initial migration.
const (
	GroupAdmin   = "admin"
	GroupManager = "manager"
	GroupWorker  = "worker"
)
