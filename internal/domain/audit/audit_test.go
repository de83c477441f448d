package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditLogMarshalsValues(t *testing.T) {
	entry := &AuditEntry{
		EntityType: EntityTypeComplaint,
		EntityID:   "42",
		Action:     ActionStateChanged,
		Actor:      "7",
		OldValues:  map[string]string{"state": "RECEIVED"},
		NewValues:  map[string]string{"state": "ASSIGNED"},
		Reason:     "routine",
	}

	log, err := NewAuditLog(entry, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	assert.JSONEq(t, `{"state":"RECEIVED"}`, string(log.OldValues))
	assert.JSONEq(t, `{"state":"ASSIGNED"}`, string(log.NewValues))
	assert.Equal(t, RiskLevelMedium, log.RiskLevel)
	assert.NotEmpty(t, log.AuditID)
}

func TestDetermineRiskLevel(t *testing.T) {
	assert.Equal(t, RiskLevelHigh, DetermineRiskLevel(EntityTypeWorker, ActionDeactivated))
	assert.Equal(t, RiskLevelHigh, DetermineRiskLevel(EntityTypeCatalog, ActionSeeded))
	assert.Equal(t, RiskLevelMedium, DetermineRiskLevel(EntityTypeDispatch, ActionAssigned))
	assert.Equal(t, RiskLevelLow, DetermineRiskLevel(EntityTypeComplaint, ActionStateResubmitted))
	assert.Equal(t, RiskLevelLow, DetermineRiskLevel(EntityTypeCursor, ActionAutoAssigned))
}

func TestSignatureRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef")
	log, err := NewAuditLog(&AuditEntry{
		EntityType: EntityTypeDispatch,
		EntityID:   "9",
		Action:     ActionAutoAssigned,
		Actor:      "system",
	}, time.Now())
	require.NoError(t, err)

	ok, err := VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok, "unsigned logs never verify")

	log.Signature, err = SignAuditLog(log, key)
	require.NoError(t, err)

	ok, err = VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.True(t, ok)

	log.Reason = "tampered"
	ok, err = VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignatureCoversLifecycleFields(t *testing.T) {
	key := []byte("0123456789abcdef")
	sign := func() *AuditLog {
		log, err := NewAuditLog(&AuditEntry{
			EntityType: EntityTypeComplaint,
			EntityID:   "42",
			Action:     ActionStateChanged,
			Actor:      "7",
			OldValues:  map[string]string{"state": "RECEIVED"},
			NewValues:  map[string]string{"state": "ASSIGNED"},
		}, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
		require.NoError(t, err)
		log.Signature, err = SignAuditLog(log, key)
		require.NoError(t, err)
		return log
	}

	tampers := map[string]func(*AuditLog){
		"entity type": func(l *AuditLog) { l.EntityType = EntityTypeDispatch },
		"entity id":   func(l *AuditLog) { l.EntityID = "43" },
		"action":      func(l *AuditLog) { l.Action = ActionStateResubmitted },
		"actor":       func(l *AuditLog) { l.Actor = "8" },
		"new values":  func(l *AuditLog) { l.NewValues = []byte(`{"state":"CLOSED"}`) },
		"created at":  func(l *AuditLog) { l.CreatedAt = l.CreatedAt.Add(time.Microsecond) },
	}
	for name, tamper := range tampers {
		t.Run(name, func(t *testing.T) {
			log := sign()
			tamper(log)
			ok, err := VerifyAuditLogSignature(log, key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
