package models

// AuditLogEntry represents an admin action
type AuditLogEntry struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	TargetRef string `json:"targetRef"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// AuditLogFilter holds optional filters for listing audit logs
type AuditLogFilter struct {
	Action string
	Limit  int
}
