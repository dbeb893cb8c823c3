// Package ledger provides the JournalEntry repository contract.
package ledger

import (
	"context"
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
)

// Repository defines operations for journal entry persistence.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, entry *JournalEntry) error
	GetByID(ctx context.Context, entryID id.ID) (*JournalEntry, error)
	GetByNumber(ctx context.Context, companyID id.ID, number string) (*JournalEntry, error)
	Update(ctx context.Context, entry *JournalEntry) error

	// Delete physically removes a draft entry with its lines.
	Delete(ctx context.Context, entryID id.ID) error

	// Line operations
	GetLines(ctx context.Context, entryID id.ID) ([]JournalLine, error)
	SaveLines(ctx context.Context, entryID id.ID, lines []JournalLine) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error)

	// Locking. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, entryID id.ID) (*JournalEntry, error)
}

// ListFilter for filtering journal entries.
type ListFilter struct {
	domain.ListFilter

	// Entry-specific filters
	Type       *EntryType
	AccountID  *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
	ReversalOf *id.ID
}
