package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/ledger"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// JournalEntryHandler handles HTTP requests for journal entries.
type JournalEntryHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewJournalEntryHandler creates a new journal entry handler.
func NewJournalEntryHandler(base *BaseHandler, service *ledger.Service) *JournalEntryHandler {
	return &JournalEntryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /ledger/entries - create a draft entry.
func (h *JournalEntryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateJournalEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry := req.ToEntity()

	if err := h.service.Create(ctx, entry); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromJournalEntry(entry)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /ledger/entries/:id.
func (h *JournalEntryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	entry, err := h.service.GetByID(ctx, entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJournalEntry(entry))
}

// Update handles PUT /ledger/entries/:id - draft entries only.
func (h *JournalEntryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateJournalEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.GetByID(ctx, entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(entry)

	if err := h.service.Update(ctx, entry); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromJournalEntry(entry)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /ledger/entries/:id - draft entries only.
func (h *JournalEntryHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, entryID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Post handles POST /ledger/entries/:id/post - make the entry immutable.
func (h *JournalEntryHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	entry, err := h.service.Post(ctx, entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromJournalEntry(entry)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Reverse handles POST /ledger/entries/:id/reverse.
// Returns the newly created reversing entry.
func (h *JournalEntryHandler) Reverse(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReverseJournalEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var entryType *ledger.EntryType
	if req.Type != nil {
		t := ledger.EntryType(*req.Type)
		entryType = &t
	}

	reversal, err := h.service.Reverse(ctx, entryID, req.Reason, entryType)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromJournalEntry(reversal)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// List handles GET /ledger/entries - list with filtering.
func (h *JournalEntryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.Statuses = c.QueryArray("status")

	if companyID := c.Query("companyId"); companyID != "" {
		parsed, err := id.Parse(companyID)
		if err == nil {
			filter.CompanyID = &parsed
		}
	}

	if entryType := c.Query("type"); entryType != "" {
		t := ledger.EntryType(entryType)
		filter.Type = &t
	}

	if accountID := c.Query("accountId"); accountID != "" {
		parsed, err := id.Parse(accountID)
		if err == nil {
			filter.AccountID = &parsed
		}
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromJournalEntries(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
