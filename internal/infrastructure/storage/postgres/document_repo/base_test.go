package document_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
)

func newOrderByRepo() *BaseDocumentRepo[*struct{}] {
	cols := []string{"id", "number", "date", "company_id", "status", "created_at", "updated_at", "version"}
	return NewBaseDocumentRepo(nil, "test_documents", cols, func() *struct{} { return &struct{}{} })
}

func TestParseOrderBy(t *testing.T) {
	repo := newOrderByRepo()

	tests := []struct {
		name    string
		orderBy string
		want    string
	}{
		{"empty defaults to date desc", "", "date DESC"},
		{"blank defaults to date desc", "   ", "date DESC"},
		{"bare field ascends", "number", "number ASC"},
		{"plus prefix ascends", "+number", "number ASC"},
		{"minus prefix descends", "-date", "date DESC"},
		{"minus created_at", "-created_at", "created_at DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrderBy_Rejects(t *testing.T) {
	repo := newOrderByRepo()

	// SQL-style direction suffixes are not part of the grammar: handlers
	// must send "-date", not "date DESC".
	for _, orderBy := range []string{
		"date DESC",
		"date ASC",
		"date; DROP TABLE test_documents",
		"secret_column",
		"-",
		"+",
	} {
		t.Run(orderBy, func(t *testing.T) {
			_, err := repo.parseOrderBy(orderBy)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}
