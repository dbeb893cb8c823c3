package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/ledger"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const (
	journalEntryTable = "doc_journal_entries"
	journalLineTable  = "doc_journal_entry_lines"
)

// Compile-time check that JournalEntryRepo implements ledger.Repository.
var _ ledger.Repository = (*JournalEntryRepo)(nil)

// JournalEntryRepo implements ledger.Repository.
type JournalEntryRepo struct {
	*BaseDocumentRepo[*ledger.JournalEntry]
}

// NewJournalEntryRepo creates a new journal entry repository.
func NewJournalEntryRepo(txManager *postgres.TxManager) *JournalEntryRepo {
	return &JournalEntryRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*ledger.JournalEntry](
			txManager,
			journalEntryTable,
			postgres.ExtractDBColumns[ledger.JournalEntry](),
			func() *ledger.JournalEntry { return &ledger.JournalEntry{} },
		),
	}
}

// GetLines retrieves entry lines ordered by line number.
func (r *JournalEntryRepo) GetLines(ctx context.Context, entryID id.ID) ([]ledger.JournalLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "account_id", "debit", "credit", "description").
		From(journalLineTable).
		Where(squirrel.Eq{"entry_id": entryID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []ledger.JournalLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the line set of an entry.
// Must be called inside a transaction together with the header write.
func (r *JournalEntryRepo) SaveLines(ctx context.Context, entryID id.ID, lines []ledger.JournalLine) error {
	delQ := r.Builder().
		Delete(journalLineTable).
		Where(squirrel.Eq{"entry_id": entryID})

	delSQL, delArgs, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}

	querier := r.Querier(ctx)
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	insQ := r.Builder().Insert(journalLineTable).Columns(
		"line_id", "entry_id", "line_no", "account_id", "debit", "credit", "description",
	)
	for _, line := range lines {
		insQ = insQ.Values(
			line.LineID, entryID, line.LineNo, line.AccountID,
			line.Debit, line.Credit, line.Description,
		)
	}

	insSQL, insArgs, err := insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, insSQL, insArgs...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// Delete removes the entry with its lines.
func (r *JournalEntryRepo) Delete(ctx context.Context, entryID id.ID) error {
	if err := r.SaveLines(ctx, entryID, nil); err != nil {
		return err
	}
	return r.BaseDocumentRepo.Delete(ctx, entryID)
}

// List retrieves entries with ledger-specific filtering.
func (r *JournalEntryRepo) List(ctx context.Context, filter ledger.ListFilter) (domain.ListResult[*ledger.JournalEntry], error) {
	var extra []squirrel.Sqlizer

	if filter.Type != nil {
		extra = append(extra, squirrel.Eq{"type": *filter.Type})
	}
	if filter.ReversalOf != nil {
		extra = append(extra, squirrel.Eq{"reversal_of": *filter.ReversalOf})
	}
	if filter.DateFrom != nil {
		extra = append(extra, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		extra = append(extra, squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.AccountID != nil {
		extra = append(extra, squirrel.Expr(
			fmt.Sprintf("id IN (SELECT entry_id FROM %s WHERE account_id = ?)", journalLineTable),
			*filter.AccountID,
		))
	}

	return r.ListWhere(ctx, filter.ListFilter, extra)
}
