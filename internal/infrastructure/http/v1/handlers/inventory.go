package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain/inventory"
	"retailops/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles stock ledger endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Adjust handles POST /inventory/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	row, err := h.service.Adjust(c.Request.Context(), in, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, row)
}

// Transfer handles POST /inventory/transfer
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req dto.TransferInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), in, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// SetMinimumStock handles PUT /inventory/minimum-stock
func (h *InventoryHandler) SetMinimumStock(c *gin.Context) {
	var req dto.SetMinimumStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	warehouseID, err := id.Parse(req.WarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	minimum := types.NewQuantityFromFloat64(req.MinimumStock)
	if err := h.service.SetMinimumStock(c.Request.Context(), productID, warehouseID, minimum); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "minimum stock updated")
}

// Get handles GET /inventory/:productId/:warehouseId
func (h *InventoryHandler) Get(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	row, err := h.service.GetInventory(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, row)
}

// ListWarehouseStock handles GET /inventory/warehouse/:warehouseId
func (h *InventoryHandler) ListWarehouseStock(c *gin.Context) {
	warehouseID, err := id.Parse(c.Param("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	rows, err := h.service.ListWarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: rows})
}

// GetMovements handles GET /inventory/movements
//
// Query: productId (required), warehouseId, fromDate, toDate, limit, offset.
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	filter := inventory.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		parsed, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &parsed
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}
	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: movements})
}
