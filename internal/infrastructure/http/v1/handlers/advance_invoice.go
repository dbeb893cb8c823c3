package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/advances"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// AdvanceInvoiceHandler handles HTTP requests for advance invoices.
type AdvanceInvoiceHandler struct {
	*BaseHandler
	service *advances.Service
}

// NewAdvanceInvoiceHandler creates a new advance invoice handler.
func NewAdvanceInvoiceHandler(base *BaseHandler, service *advances.Service) *AdvanceInvoiceHandler {
	return &AdvanceInvoiceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /advances - create an advance invoice. Issued
// immediately unless the request asks for a draft.
func (h *AdvanceInvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAdvanceInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adv := req.ToEntity()

	var err error
	if req.Draft {
		err = h.service.CreateDraft(ctx, adv)
	} else {
		err = h.service.Issue(ctx, adv)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromAdvanceInvoice(adv)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Issue handles POST /advances/:id/issue - issue a draft advance.
func (h *AdvanceInvoiceHandler) Issue(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	adv, err := h.service.IssueDraft(ctx, advID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromAdvanceInvoice(adv)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Get handles GET /advances/:id.
func (h *AdvanceInvoiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	adv, err := h.service.GetByID(ctx, advID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromAdvanceInvoice(adv))
}

// MarkPaid handles POST /advances/:id/mark-paid - record the payment.
func (h *AdvanceInvoiceHandler) MarkPaid(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adv, err := h.service.MarkPaid(ctx, advID, req.PaymentDate, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromAdvanceInvoice(adv)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Use handles POST /advances/:id/use - allocate part of the advance
// to a final invoice.
func (h *AdvanceInvoiceHandler) Use(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UseAdvanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoiceID, err := id.Parse(req.InvoiceID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid invoiceId format"))
		return
	}

	adv, err := h.service.Use(ctx, advID, invoiceID, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromAdvanceInvoice(adv)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Cancel handles POST /advances/:id/cancel.
func (h *AdvanceInvoiceHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CancelAdvanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adv, err := h.service.Cancel(ctx, advID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromAdvanceInvoice(adv)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /advances/:id - draft advances only.
func (h *AdvanceInvoiceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	advID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, advID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /advances - list with filtering.
func (h *AdvanceInvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := advances.ListFilter{
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

	if partnerID := c.Query("partnerId"); partnerID != "" {
		parsed, err := id.Parse(partnerID)
		if err == nil {
			filter.PartnerID = &parsed
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

	if hasRemaining := c.Query("hasRemaining"); hasRemaining != "" {
		val := hasRemaining == "true"
		filter.HasRemaining = &val
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromAdvanceInvoices(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
