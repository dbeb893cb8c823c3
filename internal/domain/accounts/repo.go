package accounts

import (
	"context"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
)

// ChangedChannel is the NOTIFY channel account writes are announced on.
// The payload is the changed account ID, or empty for a full reload.
const ChangedChannel = "accounts_changed"

// Repository defines the interface for Account persistence.
type Repository interface {
	domain.CatalogRepository[*Account]

	// GetChildren retrieves direct children of an account.
	GetChildren(ctx context.Context, parentID id.ID) ([]*Account, error)

	// GetTree retrieves the whole chart (or a subtree when rootID is set)
	// ordered by code, parents before children.
	GetTree(ctx context.Context, rootID *id.ID) ([]*Account, error)
}
