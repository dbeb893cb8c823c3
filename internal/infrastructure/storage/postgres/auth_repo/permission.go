package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/domain/auth"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const permissionColumns = "id, code, name, description, resource, action, created_at"

// PermissionRepo implements auth.PermissionRepository.
// Permissions are seeded at migration time and read-only at runtime.
type PermissionRepo struct {
	txManager *postgres.TxManager
}

// NewPermissionRepo creates a new permission repository.
func NewPermissionRepo(txManager *postgres.TxManager) *PermissionRepo {
	return &PermissionRepo{txManager: txManager}
}

func scanPermissions(rows pgx.Rows) ([]auth.Permission, error) {
	var permissions []auth.Permission
	for rows.Next() {
		var perm auth.Permission
		err := rows.Scan(
			&perm.ID, &perm.Code, &perm.Name, &perm.Description,
			&perm.Resource, &perm.Action, &perm.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, perm)
	}
	return permissions, rows.Err()
}

// GetByCode retrieves permission by code.
func (r *PermissionRepo) GetByCode(ctx context.Context, code string) (*auth.Permission, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE code = $1`

	var perm auth.Permission
	err := q.QueryRow(ctx, query, code).Scan(
		&perm.ID, &perm.Code, &perm.Name, &perm.Description,
		&perm.Resource, &perm.Action, &perm.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("permission", code)
	}
	if err != nil {
		return nil, fmt.Errorf("query permission: %w", err)
	}

	return &perm, nil
}

// List retrieves all permissions.
func (r *PermissionRepo) List(ctx context.Context) ([]auth.Permission, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT ` + permissionColumns + ` FROM permissions ORDER BY resource, action`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

// ListByResource retrieves permissions for a resource.
func (r *PermissionRepo) ListByResource(ctx context.Context, resource string) ([]auth.Permission, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE resource = $1 ORDER BY action`

	rows, err := q.Query(ctx, query, resource)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	return scanPermissions(rows)
}

var _ auth.PermissionRepository = (*PermissionRepo)(nil)
