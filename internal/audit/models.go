package audit

import (
	"time"

	"github.com/google/uuid"

	"orgtrakker/internal/diff"
)

// Action is what happened to the entity.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionEvaluate Action = "EVALUATE"
)

// Actor is who did it and from where.
type Actor struct {
	Username  string `json:"username"`
	UserID    string `json:"userId,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
}

// Event is emitted after a successful write. Keep it transport-agnostic so
// sinks can fan out.
type Event struct {
	ID          uuid.UUID          `json:"id"`
	TenantID    string             `json:"tenantId"`
	EntityType  string             `json:"entityType"`
	EntityID    string             `json:"entityId"`
	EntityLabel string             `json:"entityLabel"`
	Action      Action             `json:"action"`
	Description string             `json:"description,omitempty"`
	Actor       Actor              `json:"actor"`
	Changes     []diff.FieldChange `json:"changes,omitempty"`
	RequestID   string             `json:"requestId,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}
