package audit

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity being audited
type EntityType string

const (
	EntityTypeComplaint EntityType = "COMPLAINT"
	EntityTypeDispatch  EntityType = "DISPATCH"
	EntityTypeWorker    EntityType = "WORKER"
	EntityTypeCursor    EntityType = "CURSOR"
	EntityTypeCatalog   EntityType = "CATALOG"
)

// Action represents the type of action being audited
type Action string

const (
	ActionCreated          Action = "CREATED"
	ActionStateChanged     Action = "STATE_CHANGED"
	ActionStateResubmitted Action = "STATE_RESUBMITTED"
	ActionAssigned         Action = "ASSIGNED"
	ActionAutoAssigned     Action = "AUTO_ASSIGNED"
	ActionActivated        Action = "ACTIVATED"
	ActionDeactivated      Action = "DEACTIVATED"
	ActionSeeded           Action = "SEEDED"
)

// RiskLevel represents the risk classification of an operation
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	Signature  []byte          `json:"signature,omitempty"`
	TraceID    string          `json:"traceId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditEntry is the input for creating audit logs
type AuditEntry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	OldValues  any
	NewValues  any
	Reason     string
	TraceID    string
}

// Repository defines the interface for audit log persistence
type Repository interface {
	Create(ctx context.Context, entry *AuditLog) error
	// ListByEntity returns the entity's logs, oldest first.
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]*AuditLog, error)
}

// DetermineRiskLevel classifies an operation by entity type and action.
func DetermineRiskLevel(entityType EntityType, action Action) RiskLevel {
	switch {
	case entityType == EntityTypeWorker && action == ActionDeactivated:
		return RiskLevelHigh
	case entityType == EntityTypeCatalog:
		return RiskLevelHigh
	case action == ActionAssigned || action == ActionStateChanged:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// NewAuditLog creates a new AuditLog from an AuditEntry. CreatedAt is kept
// at microsecond precision, the resolution the store preserves.
func NewAuditLog(entry *AuditEntry, at time.Time) (*AuditLog, error) {
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      entry.Actor,
		Reason:     entry.Reason,
		TraceID:    entry.TraceID,
		RiskLevel:  DetermineRiskLevel(entry.EntityType, entry.Action),
		CreatedAt:  at.UTC().Truncate(time.Microsecond),
	}

	if entry.OldValues != nil {
		data, err := json.Marshal(entry.OldValues)
		if err != nil {
			return nil, err
		}
		log.OldValues = data
	}

	if entry.NewValues != nil {
		data, err := json.Marshal(entry.NewValues)
		if err != nil {
			return nil, err
		}
		log.NewValues = data
	}

	return log, nil
}
