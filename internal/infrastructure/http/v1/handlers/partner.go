package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/domain/partners"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// PartnerHandler handles HTTP requests for business partners.
type PartnerHandler struct {
	*CatalogHandler[*partners.Partner, dto.CreatePartnerRequest, dto.UpdatePartnerRequest]
	service *partners.Service
}

// NewPartnerHandler creates a new partner handler.
func NewPartnerHandler(base *BaseHandler, service *partners.Service) *PartnerHandler {
	cfg := CatalogHandlerConfig[*partners.Partner, dto.CreatePartnerRequest, dto.UpdatePartnerRequest]{
		Service:    service.CatalogService,
		EntityName: "partner",
		MapCreateDTO: func(req dto.CreatePartnerRequest) *partners.Partner {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartnerRequest, existing *partners.Partner) *partners.Partner {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(p *partners.Partner) any {
			return dto.FromPartner(p)
		},
	}

	return &PartnerHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// FindByPIB handles GET /catalog/partners/by-pib/:pib.
func (h *PartnerHandler) FindByPIB(c *gin.Context) {
	ctx := c.Request.Context()

	pib := c.Param("pib")
	if len(pib) != 9 {
		h.Error(c, apperror.NewValidation("pib must be 9 digits"))
		return
	}

	partner, err := h.service.FindByPIB(ctx, pib)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPartner(partner))
}
