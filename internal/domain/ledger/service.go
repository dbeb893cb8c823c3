// Package ledger provides the JournalEntry service.
package ledger

import (
	"context"
	"fmt"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/security"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/accounts"
	"fiskalis/pkg/logger"
)

const entityName = "journal entry"

// numberPrefix for formatted journal entry numbers (NO-2026-00001).
const numberPrefix = "NO"

// AccountRegistry validates that journal lines reference active accounts.
type AccountRegistry interface {
	RequireActive(ctx context.Context, accountID id.ID) (*accounts.Account, error)
}

// Service provides business operations for journal entries.
type Service struct {
	repo      Repository
	registry  AccountRegistry
	numerator numerator.Generator
	txManager tx.Manager
	policy    security.PostingPolicy
	audit     domain.AuditRecorder
	events    domain.EventPublisher
	hooks     *domain.HookRegistry[*JournalEntry]
}

// NewService creates a new journal entry service.
func NewService(
	repo Repository,
	registry AccountRegistry,
	num numerator.Generator,
	txManager tx.Manager,
	policy security.PostingPolicy,
	audit domain.AuditRecorder,
) *Service {
	if policy == nil {
		policy = security.OpenPolicy{}
	}
	if audit == nil {
		audit = domain.NopAuditRecorder{}
	}
	return &Service{
		repo:      repo,
		registry:  registry,
		numerator: num,
		txManager: txManager,
		policy:    policy,
		audit:     audit,
		events:    domain.NopEventPublisher{},
		hooks:     domain.NewHookRegistry[*JournalEntry](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*JournalEntry] {
	return s.hooks
}

// SetEventPublisher routes posting and reversal events to the publisher.
// The publisher is invoked inside the service transaction, so a durable
// publisher (outbox) records the event atomically with the state change.
func (s *Service) SetEventPublisher(events domain.EventPublisher) {
	if events != nil {
		s.events = events
	}
}

// sequenceConfig describes the company's journal sequence. Entry numbers
// never reset: they stay unique and sequential for the life of the company.
func sequenceConfig(companyID id.ID) numerator.Config {
	cfg := numerator.DefaultConfig(numberPrefix, companyID)
	cfg.ResetPeriod = "never"
	return cfg
}

// Create validates a draft entry, allocates its sequential number and
// persists it with lines in one transaction.
func (s *Service) Create(ctx context.Context, entry *JournalEntry) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, entry); err != nil {
		return err
	}

	entry.RecalculateTotals()
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkAccounts(ctx, entry); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The sequence row is the serialization point for entry numbering:
		// the UPSERT ... RETURNING locks it until commit.
		if entry.EntryNumber == 0 {
			cfg := sequenceConfig(entry.CompanyID)
			value, err := s.numerator.GetNextValue(ctx, cfg, entry.Date)
			if err != nil {
				return fmt.Errorf("allocate entry number: %w", err)
			}
			entry.EntryNumber = value
			entry.Number = formatEntryNumber(cfg, entry.Date, value)
		}

		if err := s.repo.Create(ctx, entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		if err := s.repo.SaveLines(ctx, entry.ID, entry.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.audit.LogChange(ctx, "journal_entry", entry.ID, domain.AuditCreate, map[string]any{
		"number": entry.Number,
		"type":   string(entry.Type),
		"total":  entry.TotalDebit.String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, entry); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "journal entry created",
		"id", entry.ID,
		"number", entry.Number,
		"lines", len(entry.Lines))

	return nil
}

// GetByID retrieves an entry with lines.
func (s *Service) GetByID(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, entryID.String())
		}
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	entry.Lines = lines

	return entry, nil
}

// Update replaces a draft entry's fields and lines. Posted entries are immutable.
func (s *Service) Update(ctx context.Context, entry *JournalEntry) error {
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, entry); err != nil {
		return err
	}

	entry.RecalculateTotals()
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkAccounts(ctx, entry); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, entry.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, entry.ID.String())
			}
			return err
		}

		if err := current.CanModify(); err != nil {
			return err
		}

		if current.Version != entry.Version {
			return apperror.NewConcurrentModification(entityName, entry.ID.String())
		}

		// Number and entry number are immutable once assigned.
		entry.Number = current.Number
		entry.EntryNumber = current.EntryNumber
		entry.Touch()

		if err := s.repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		if err := s.repo.SaveLines(ctx, entry.ID, entry.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.audit.LogChange(ctx, "journal_entry", entry.ID, domain.AuditUpdate, map[string]any{
		"number": entry.Number,
		"total":  entry.TotalDebit.String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	return nil
}

// Post transitions a draft entry to POSTED. The balance invariant is
// re-checked under the row lock against concurrent mutation.
func (s *Service) Post(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	var posted *JournalEntry

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.lockWithLines(ctx, entryID)
		if err != nil {
			return err
		}

		if err := s.policy.CanPost(ctx, entry.Date); err != nil {
			return err
		}

		if err := entry.CheckBalanced(); err != nil {
			return err
		}

		if err := entry.MarkPosted(); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "journal_entry",
			AggregateID:   entry.ID,
			EventType:     "JournalEntryPosted",
			Payload: map[string]any{
				"number":    entry.Number,
				"companyId": entry.CompanyID.String(),
				"postedAt":  entry.PostedAt,
			},
		}); err != nil {
			return fmt.Errorf("publish posted event: %w", err)
		}

		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "journal_entry", posted.ID, domain.AuditPost, map[string]any{
		"number":   posted.Number,
		"postedAt": posted.PostedAt,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	if err := s.hooks.Run(ctx, domain.AfterPost, posted); err != nil {
		logger.Warn(ctx, "after-post hook failed", "error", err)
	}

	logger.Info(ctx, "journal entry posted", "id", posted.ID, "number", posted.Number)

	return posted, nil
}

// Reverse compensates a posted entry: creates the debit/credit mirror as
// a new immediately-posted entry and marks the original REVERSED. The
// original and its lines are never mutated beyond the status change.
func (s *Service) Reverse(ctx context.Context, entryID id.ID, reason string, entryType *EntryType) (*JournalEntry, error) {
	if reason == "" {
		return nil, apperror.NewValidation("reversal reason is required").
			WithDetail("field", "reason")
	}

	revType := TypeAdjustment
	if entryType != nil {
		if !isValidEntryType(*entryType) {
			return nil, apperror.NewValidation("invalid entry type").
				WithDetail("field", "type").
				WithDetail("value", string(*entryType))
		}
		revType = *entryType
	}

	var reversal *JournalEntry

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.lockWithLines(ctx, entryID)
		if err != nil {
			return err
		}

		if err := s.policy.CanReverse(ctx, entry.Date); err != nil {
			return err
		}

		rev := entry.BuildReversal(revType, reason)

		cfg := sequenceConfig(rev.CompanyID)
		value, err := s.numerator.GetNextValue(ctx, cfg, rev.Date)
		if err != nil {
			return fmt.Errorf("allocate entry number: %w", err)
		}
		rev.EntryNumber = value
		rev.Number = formatEntryNumber(cfg, rev.Date, value)

		// Reversals are self-posting.
		if err := rev.MarkPosted(); err != nil {
			return err
		}

		// Validates the original is POSTED before any write.
		if err := entry.MarkReversed(); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, rev); err != nil {
			return fmt.Errorf("create reversal: %w", err)
		}
		if err := s.repo.SaveLines(ctx, rev.ID, rev.Lines); err != nil {
			return fmt.Errorf("save reversal lines: %w", err)
		}
		if err := s.repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update original: %w", err)
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "journal_entry",
			AggregateID:   entry.ID,
			EventType:     "JournalEntryReversed",
			Payload: map[string]any{
				"number":         entry.Number,
				"companyId":      entry.CompanyID.String(),
				"reason":         reason,
				"reversalId":     rev.ID.String(),
				"reversalNumber": rev.Number,
			},
		}); err != nil {
			return fmt.Errorf("publish reversed event: %w", err)
		}

		reversal = rev
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "journal_entry", entryID, domain.AuditReverse, map[string]any{
		"reason":         reason,
		"reversalId":     reversal.ID.String(),
		"reversalNumber": reversal.Number,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	if err := s.hooks.Run(ctx, domain.AfterReverse, reversal); err != nil {
		logger.Warn(ctx, "after-reverse hook failed", "error", err)
	}

	logger.Info(ctx, "journal entry reversed",
		"id", entryID,
		"reversalId", reversal.ID,
		"reason", reason)

	return reversal, nil
}

// Delete removes a draft entry. Posted and reversed entries are
// permanently retained.
func (s *Service) Delete(ctx context.Context, entryID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.repo.GetForUpdate(ctx, entryID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, entryID.String())
			}
			return err
		}

		if err := entry.CanModify(); err != nil {
			return err
		}

		return s.repo.Delete(ctx, entryID)
	})
	if err != nil {
		return err
	}

	if err := s.audit.LogChange(ctx, "journal_entry", entryID, domain.AuditDelete, nil); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	return nil
}

// List retrieves entries with filtering. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error) {
	return s.repo.List(ctx, filter)
}

// lockWithLines acquires the entry row lock and loads its lines.
func (s *Service) lockWithLines(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	entry, err := s.repo.GetForUpdate(ctx, entryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, entryID.String())
		}
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	entry.Lines = lines

	return entry, nil
}

// checkAccounts verifies every line references an active account.
func (s *Service) checkAccounts(ctx context.Context, entry *JournalEntry) error {
	seen := make(map[id.ID]bool, len(entry.Lines))
	for _, line := range entry.Lines {
		if seen[line.AccountID] {
			continue
		}
		seen[line.AccountID] = true

		if _, err := s.registry.RequireActive(ctx, line.AccountID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewRuleViolation(apperror.CodeInactiveAccount, "unknown account").
					WithDetail("accountId", line.AccountID.String())
			}
			return err
		}
	}
	return nil
}

func formatEntryNumber(cfg numerator.Config, period time.Time, value int64) string {
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), value)
}
