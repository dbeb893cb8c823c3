package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/accounts"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// AccountHandler handles HTTP requests for the chart of accounts.
type AccountHandler struct {
	*CatalogHandler[*accounts.Account, dto.CreateAccountRequest, dto.UpdateAccountRequest]
	service *accounts.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service *accounts.Service) *AccountHandler {
	cfg := CatalogHandlerConfig[*accounts.Account, dto.CreateAccountRequest, dto.UpdateAccountRequest]{
		Service:    service.CatalogService,
		EntityName: "account",
		MapCreateDTO: func(req dto.CreateAccountRequest) *accounts.Account {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateAccountRequest, existing *accounts.Account) *accounts.Account {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(acc *accounts.Account) any {
			return dto.FromAccount(acc)
		},
	}

	return &AccountHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// GetTree handles GET /catalog/accounts/tree - hierarchy ordered by code.
// Optional rootId query param limits the tree to one subtree.
func (h *AccountHandler) GetTree(c *gin.Context) {
	ctx := c.Request.Context()

	var rootID *id.ID
	if raw := c.Query("rootId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid rootId format"))
			return
		}
		rootID = &parsed
	}

	tree, err := h.service.GetTree(ctx, rootID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      dto.FromAccounts(tree),
		TotalCount: int64(len(tree)),
		Limit:      len(tree),
	})
}

// SetActive overrides the generic handler: account deactivation walks
// the subtree, so it goes through the account service.
func (h *AccountHandler) SetActive(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if req.Active {
		err = h.service.Activate(ctx, accountID)
	} else {
		err = h.service.Deactivate(ctx, accountID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "active flag updated")
}
