package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/vatrec"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// VATRecordHandler handles HTTP requests for VAT evidence records.
type VATRecordHandler struct {
	*BaseHandler
	service *vatrec.Service
}

// NewVATRecordHandler creates a new VAT record handler.
func NewVATRecordHandler(base *BaseHandler, service *vatrec.Service) *VATRecordHandler {
	return &VATRecordHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Ingest handles POST /tax/vat-records - ingest a batch of evidence.
func (h *VATRecordHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestVATRecordsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	recs := req.ToEntities()

	if err := h.service.Ingest(ctx, recs); err != nil {
		h.Error(c, err)
		return
	}

	response := dto.ListResponse{
		Items:      dto.FromVATRecords(recs),
		TotalCount: int64(len(recs)),
		Limit:      len(recs),
	}
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// List handles GET /tax/vat-records - evidence for a period.
func (h *VATRecordHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := id.Parse(c.Query("companyId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("companyId is required"))
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("from must be an RFC3339 timestamp"))
		return
	}

	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("to must be an RFC3339 timestamp"))
		return
	}

	recs, err := h.service.ListByPeriod(ctx, companyID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromVATRecords(recs),
		TotalCount: int64(len(recs)),
		Limit:      len(recs),
	})
}
