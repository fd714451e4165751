package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/purchasing"
	"retailops/internal/infrastructure/http/v1/dto"
)

// PurchasingHandler handles purchase order lifecycle endpoints.
type PurchasingHandler struct {
	*BaseHandler
	service *purchasing.Service
}

// NewPurchasingHandler creates a new purchasing handler.
func NewPurchasingHandler(base *BaseHandler, service *purchasing.Service) *PurchasingHandler {
	return &PurchasingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /purchase-orders
func (h *PurchasingHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), in, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Get handles GET /purchase-orders/:id
func (h *PurchasingHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// List handles GET /purchase-orders
//
// Query: supplierId, outletId, status, limit, offset.
func (h *PurchasingHandler) List(c *gin.Context) {
	filter := purchasing.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if supStr := c.Query("supplierId"); supStr != "" {
		parsed, err := id.Parse(supStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId format"))
			return
		}
		filter.SupplierID = &parsed
	}
	if outletStr := c.Query("outletId"); outletStr != "" {
		parsed, err := id.Parse(outletStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid outletId format"))
			return
		}
		filter.OutletID = &parsed
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := purchasing.Status(statusStr)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: result})
}

// Update handles PATCH /purchase-orders/:id
func (h *PurchasingHandler) Update(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Update(c.Request.Context(), orderID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Receive handles POST /purchase-orders/:id/receive
func (h *PurchasingHandler) Receive(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, err)
		return
	}

	order, err := h.service.Receive(c.Request.Context(), orderID, lines, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchasingHandler) Cancel(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchase order id format"))
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orderID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}
