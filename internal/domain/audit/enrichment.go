// Package audit stamps created-by and updated-by fields on domain
// entities from the authenticated user in the request context.
package audit

import (
	"context"

	appctx "fiskalis/internal/core/context"
)

// EnrichCreatedByDirect stamps both fields. Wire it into a service's
// BeforeCreate hook. A missing user in context leaves the fields alone,
// which keeps seed and worker paths working without a fake identity.
func EnrichCreatedByDirect(ctx context.Context, createdBy, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	if createdBy != nil {
		*createdBy = userID
	}
	if updatedBy != nil {
		*updatedBy = userID
	}
}

// EnrichUpdatedByDirect stamps only UpdatedBy. Wire it into a service's
// BeforeUpdate hook.
func EnrichUpdatedByDirect(ctx context.Context, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID != "" && updatedBy != nil {
		*updatedBy = userID
	}
}
