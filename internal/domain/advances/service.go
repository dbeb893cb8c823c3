// Package advances provides the AdvanceInvoice service.
package advances

import (
	"context"
	"fmt"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/partners"
	"fiskalis/pkg/logger"
)

const entityName = "advance invoice"

// numberPrefix for advance invoice numbers (AVR-2026-00001).
const numberPrefix = "AVR"

// PartnerRegistry validates partner references on issue.
type PartnerRegistry interface {
	GetByID(ctx context.Context, partnerID id.ID) (*partners.Partner, error)
}

// Service provides business operations for advance invoices.
type Service struct {
	repo      Repository
	partners  PartnerRegistry
	numerator numerator.Generator
	txManager tx.Manager
	audit     domain.AuditRecorder
	events    domain.EventPublisher
	hooks     *domain.HookRegistry[*AdvanceInvoice]
}

// NewService creates a new advance invoice service.
func NewService(
	repo Repository,
	partnerReg PartnerRegistry,
	num numerator.Generator,
	txManager tx.Manager,
	audit domain.AuditRecorder,
) *Service {
	if audit == nil {
		audit = domain.NopAuditRecorder{}
	}
	return &Service{
		repo:      repo,
		partners:  partnerReg,
		numerator: num,
		txManager: txManager,
		audit:     audit,
		events:    domain.NopEventPublisher{},
		hooks:     domain.NewHookRegistry[*AdvanceInvoice](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*AdvanceInvoice] {
	return s.hooks
}

// SetEventPublisher routes allocation events to the publisher. The
// publisher is invoked inside the service transaction.
func (s *Service) SetEventPublisher(events domain.EventPublisher) {
	if events != nil {
		s.events = events
	}
}

// CreateDraft validates and persists a new advance in DRAFT. The number
// is assigned, but the advance can still be modified or deleted until it
// is issued.
func (s *Service) CreateDraft(ctx context.Context, adv *AdvanceInvoice) error {
	if err := s.prepare(ctx, adv); err != nil {
		return err
	}

	if err := s.persistNew(ctx, adv); err != nil {
		return err
	}

	logger.Info(ctx, "advance invoice drafted",
		"id", adv.ID,
		"number", adv.Number,
		"total", adv.TotalAmount.String())

	return nil
}

// Issue validates a new advance, derives its amounts, assigns a number
// and persists it already in ISSUED. One-shot shortcut for callers that
// do not need a draft stage.
func (s *Service) Issue(ctx context.Context, adv *AdvanceInvoice) error {
	if err := s.prepare(ctx, adv); err != nil {
		return err
	}

	if err := adv.MarkIssued(); err != nil {
		return err
	}

	if err := s.persistNew(ctx, adv); err != nil {
		return err
	}

	logger.Info(ctx, "advance invoice issued",
		"id", adv.ID,
		"number", adv.Number,
		"total", adv.TotalAmount.String())

	return nil
}

// IssueDraft transitions a persisted DRAFT advance to ISSUED.
func (s *Service) IssueDraft(ctx context.Context, advID id.ID) (*AdvanceInvoice, error) {
	var issued *AdvanceInvoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		adv, err := s.repo.GetForUpdate(ctx, advID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, advID.String())
			}
			return err
		}

		if err := adv.MarkIssued(); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, adv); err != nil {
			return fmt.Errorf("update advance: %w", err)
		}

		issued = adv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "advance_invoice", advID, domain.AuditUpdate, map[string]any{
		"action": "issue",
		"number": issued.Number,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "advance invoice issued", "id", advID, "number", issued.Number)

	return issued, nil
}

// prepare runs creation hooks, derives amounts and validates the advance
// and its partner reference.
func (s *Service) prepare(ctx context.Context, adv *AdvanceInvoice) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, adv); err != nil {
		return err
	}

	adv.RecalculateAmounts()
	if err := adv.Validate(ctx); err != nil {
		return err
	}

	partner, err := s.partners.GetByID(ctx, adv.PartnerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("partner does not exist").
				WithDetail("field", "partnerId").
				WithDetail("partnerId", adv.PartnerID.String())
		}
		return err
	}
	if !partner.Active {
		return apperror.NewValidation("partner is inactive").
			WithDetail("field", "partnerId").
			WithDetail("partnerId", adv.PartnerID.String())
	}

	return nil
}

// persistNew numerates and inserts the advance in one transaction.
func (s *Service) persistNew(ctx context.Context, adv *AdvanceInvoice) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if adv.Number == "" {
			cfg := numerator.DefaultConfig(numberPrefix, adv.CompanyID)
			number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), adv.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			adv.Number = number
		}

		if err := s.repo.Create(ctx, adv); err != nil {
			return fmt.Errorf("create advance: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.audit.LogChange(ctx, "advance_invoice", adv.ID, domain.AuditCreate, map[string]any{
		"number":      adv.Number,
		"status":      string(adv.Status),
		"partnerId":   adv.PartnerID.String(),
		"totalAmount": adv.TotalAmount.String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, adv); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	return nil
}

// GetByID retrieves an advance with its allocation log.
// Used and remaining amounts are recomputed from the log on read.
func (s *Service) GetByID(ctx context.Context, advID id.ID) (*AdvanceInvoice, error) {
	adv, err := s.repo.GetByID(ctx, advID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, advID.String())
		}
		return nil, err
	}

	allocs, err := s.repo.GetAllocations(ctx, advID)
	if err != nil {
		return nil, fmt.Errorf("get allocations: %w", err)
	}
	adv.Allocations = allocs
	adv.RecalculateAmounts()

	return adv, nil
}

// MarkPaid records the advance payment.
func (s *Service) MarkPaid(ctx context.Context, advID id.ID, paymentDate time.Time, amount types.Money) (*AdvanceInvoice, error) {
	var paid *AdvanceInvoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		adv, err := s.lockWithAllocations(ctx, advID)
		if err != nil {
			return err
		}

		if err := adv.MarkPaid(paymentDate, amount); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, adv); err != nil {
			return fmt.Errorf("update advance: %w", err)
		}

		paid = adv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "advance_invoice", advID, domain.AuditUpdate, map[string]any{
		"action":     "pay",
		"paidAmount": paid.PaidAmount.String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "advance invoice paid", "id", advID, "amount", amount.String())

	return paid, nil
}

// Use allocates part of the advance against a final invoice. The whole
// read-validate-append sequence runs under the advance's row lock, so
// concurrent calls against the same advance serialize; over-allocation
// is rejected and leaves state unchanged.
func (s *Service) Use(ctx context.Context, advID, invoiceID id.ID, amount types.Money) (*AdvanceInvoice, error) {
	var used *AdvanceInvoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		adv, err := s.lockWithAllocations(ctx, advID)
		if err != nil {
			return err
		}

		if err := adv.Allocate(invoiceID, amount); err != nil {
			return err
		}

		// Both writes commit atomically: the event row and the
		// recomputed used amount never diverge.
		last := adv.Allocations[len(adv.Allocations)-1]
		if err := s.repo.AppendAllocation(ctx, advID, last); err != nil {
			return fmt.Errorf("append allocation: %w", err)
		}
		if err := s.repo.Update(ctx, adv); err != nil {
			return fmt.Errorf("update advance: %w", err)
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "advance_invoice",
			AggregateID:   advID,
			EventType:     "AdvanceAllocated",
			Payload: map[string]any{
				"number":          adv.Number,
				"invoiceId":       invoiceID.String(),
				"amount":          amount.String(),
				"remainingAmount": adv.RemainingAmount.String(),
			},
		}); err != nil {
			return fmt.Errorf("publish allocated event: %w", err)
		}

		used = adv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "advance_invoice", advID, domain.AuditUpdate, map[string]any{
		"action":          "use",
		"invoiceId":       invoiceID.String(),
		"amount":          amount.String(),
		"remainingAmount": used.RemainingAmount.String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "advance invoice allocated",
		"id", advID,
		"invoiceId", invoiceID,
		"amount", amount.String(),
		"remaining", used.RemainingAmount.String())

	return used, nil
}

// Cancel transitions a non-terminal advance to CANCELLED. Advances with
// allocations cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, advID id.ID, reason string) (*AdvanceInvoice, error) {
	var cancelled *AdvanceInvoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		adv, err := s.lockWithAllocations(ctx, advID)
		if err != nil {
			return err
		}

		if err := adv.MarkCancelled(reason); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, adv); err != nil {
			return fmt.Errorf("update advance: %w", err)
		}

		cancelled = adv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "advance_invoice", advID, domain.AuditCancel, map[string]any{
		"reason": reason,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "advance invoice cancelled", "id", advID, "reason", reason)

	return cancelled, nil
}

// Delete removes a draft advance.
func (s *Service) Delete(ctx context.Context, advID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		adv, err := s.repo.GetForUpdate(ctx, advID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, advID.String())
			}
			return err
		}

		if !adv.InStatus(StatusDraft) {
			return apperror.NewStateConflict(entityName, string(adv.Status), string(StatusDraft)).
				WithDetail("document_id", advID.String())
		}

		return s.repo.Delete(ctx, advID)
	})
}

// List retrieves advances with filtering. Allocation logs are not loaded.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceInvoice], error) {
	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, adv := range result.Items {
		adv.RemainingAmount = adv.Remaining()
	}
	return result, nil
}

// lockWithAllocations acquires the advance row lock and loads the log.
func (s *Service) lockWithAllocations(ctx context.Context, advID id.ID) (*AdvanceInvoice, error) {
	adv, err := s.repo.GetForUpdate(ctx, advID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, advID.String())
		}
		return nil, err
	}

	allocs, err := s.repo.GetAllocations(ctx, advID)
	if err != nil {
		return nil, fmt.Errorf("get allocations: %w", err)
	}
	adv.Allocations = allocs
	adv.RecalculateAmounts()

	return adv, nil
}
