package domain

import "time"

// SystemActor is recorded in audit fields for state transitions produced by
// the engine itself rather than a user or a rule.
const SystemActor = "system"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // Actor reference (user ID, rule ID or "system")
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}
