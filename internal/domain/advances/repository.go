// Package advances provides the AdvanceInvoice repository contract.
package advances

import (
	"context"
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
)

// Repository defines operations for advance invoice persistence.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, adv *AdvanceInvoice) error
	GetByID(ctx context.Context, advID id.ID) (*AdvanceInvoice, error)
	Update(ctx context.Context, adv *AdvanceInvoice) error

	// Delete physically removes a draft advance.
	Delete(ctx context.Context, advID id.ID) error

	// Allocation log. AppendAllocation inserts one event row; the log is
	// never updated or truncated.
	GetAllocations(ctx context.Context, advID id.ID) ([]Allocation, error)
	AppendAllocation(ctx context.Context, advID id.ID, alloc Allocation) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceInvoice], error)

	// Locking. Must be called inside a transaction; serializes concurrent
	// use() calls against the same advance.
	GetForUpdate(ctx context.Context, advID id.ID) (*AdvanceInvoice, error)
}

// ListFilter for filtering advance invoices.
type ListFilter struct {
	domain.ListFilter

	// Advance-specific filters
	PartnerID *id.ID
	DateFrom  *time.Time
	DateTo    *time.Time

	// HasRemaining keeps only advances that can still be allocated
	HasRemaining *bool
}
