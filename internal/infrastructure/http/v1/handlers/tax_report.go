package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/pppdv"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// TaxReportHandler handles HTTP requests for PPPDV period reports.
type TaxReportHandler struct {
	*BaseHandler
	service *pppdv.Service
}

// NewTaxReportHandler creates a new tax report handler.
func NewTaxReportHandler(base *BaseHandler, service *pppdv.Service) *TaxReportHandler {
	return &TaxReportHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /tax/reports - create and calculate a report.
func (h *TaxReportHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTaxReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rep, err := h.service.Create(ctx, req.ToParams())
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTaxReport(rep)
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// Preview handles POST /tax/reports/preview - calculate without saving.
func (h *TaxReportHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTaxReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	calc, err := h.service.Calculate(ctx, req.ToParams())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, calc)
}

// Get handles GET /tax/reports/:id.
func (h *TaxReportHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	repID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rep, err := h.service.GetByID(ctx, repID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTaxReport(rep))
}

// Recalculate handles POST /tax/reports/:id/recalculate.
// Rejected once the report is submitted.
func (h *TaxReportHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()

	repID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecalculateTaxReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rep, err := h.service.Recalculate(ctx, repID, req.ToFieldValues())
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTaxReport(rep)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Submit handles POST /tax/reports/:id/submit.
func (h *TaxReportHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	repID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	rep, err := h.service.Submit(ctx, repID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTaxReport(rep)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// Outcome handles POST /tax/reports/:id/outcome - record the tax
// authority's accept or reject decision.
func (h *TaxReportHandler) Outcome(c *gin.Context) {
	ctx := c.Request.Context()

	repID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.TaxReportOutcomeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rep, err := h.service.ApplyOutcome(ctx, repID, req.Accepted, req.SubmissionReference)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTaxReport(rep)
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// List handles GET /tax/reports - list with filtering.
func (h *TaxReportHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := pppdv.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
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

	if year := c.Query("year"); year != "" {
		val := h.ParseIntQuery(c, "year", 0)
		if val > 0 {
			filter.Year = &val
		}
	}

	if periodType := c.Query("periodType"); periodType != "" {
		pt := company.VATPeriodType(periodType)
		filter.PeriodType = &pt
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromTaxReports(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Fields handles GET /tax/reports/fields - the form field schema.
func (h *TaxReportHandler) Fields(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromFieldDefs(pppdv.AllFields()))
}
