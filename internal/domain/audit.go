package domain

import (
	"context"

	"fiskalis/internal/core/id"
)

// AuditAction names an audited operation.
type AuditAction string

const (
	AuditCreate  AuditAction = "create"
	AuditUpdate  AuditAction = "update"
	AuditDelete  AuditAction = "delete"
	AuditPost    AuditAction = "post"
	AuditReverse AuditAction = "reverse"
	AuditSubmit  AuditAction = "submit"
	AuditCancel  AuditAction = "cancel"
)

// AuditRecorder records entity changes for the audit trail.
// The Postgres implementation compresses large payloads.
type AuditRecorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action AuditAction, changes map[string]any) error
}

// NopAuditRecorder discards all entries. Used in tests.
type NopAuditRecorder struct{}

func (NopAuditRecorder) LogChange(ctx context.Context, entityType string, entityID id.ID, action AuditAction, changes map[string]any) error {
	return nil
}
