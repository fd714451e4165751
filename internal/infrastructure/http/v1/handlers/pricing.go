package handlers

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
	"retailops/internal/core/id"
	"retailops/internal/domain/pricing"
	"retailops/internal/infrastructure/http/v1/dto"
)

// PricingHandler handles price resolution and tier management.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(base *BaseHandler, service *pricing.Service) *PricingHandler {
	return &PricingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Resolve handles GET /pricing/resolve
//
// Query: productId (required), outletId (required), customerId (optional).
func (h *PricingHandler) Resolve(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	outletID, err := id.Parse(c.Query("outletId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid outletId format"))
		return
	}

	var customerID *id.ID
	if custStr := c.Query("customerId"); custStr != "" {
		parsed, err := id.Parse(custStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customerId format"))
			return
		}
		customerID = &parsed
	}

	quote, err := h.service.Resolve(ctx, productID, outletID, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, quote)
}

// CreateTier handles POST /pricing/tiers
func (h *PricingHandler) CreateTier(c *gin.Context) {
	var req dto.CreatePriceTierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tier := req.ToTier(appctx.GetBusinessID(c.Request.Context()))
	if err := h.service.CreateTier(c.Request.Context(), tier); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, tier.ID.String())
}

// ListTiers handles GET /pricing/tiers
func (h *PricingHandler) ListTiers(c *gin.Context) {
	tiers, err := h.service.ListTiers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: tiers})
}

// SetDefaultTier handles POST /pricing/tiers/:id/default
//
// Flags the tier as the business default and clears the flag from all
// other tiers in the same transaction.
func (h *PricingHandler) SetDefaultTier(c *gin.Context) {
	tierID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid tier id format"))
		return
	}

	if err := h.service.SetDefaultTier(c.Request.Context(), tierID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "default tier updated")
}
