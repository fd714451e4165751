package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/orders"
	"retailops/internal/infrastructure/http/v1/dto"
)

// OrdersHandler handles POS order lifecycle endpoints.
type OrdersHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(base *BaseHandler, service *orders.Service) *OrdersHandler {
	return &OrdersHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreatePosOrderRequest
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

// Get handles GET /orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id format"))
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// List handles GET /orders
//
// Query: outletId, status, paymentStatus, limit, offset.
func (h *OrdersHandler) List(c *gin.Context) {
	filter := orders.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
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
		status := orders.Status(statusStr)
		filter.Status = &status
	}
	if payStr := c.Query("paymentStatus"); payStr != "" {
		payStatus := orders.PaymentStatus(payStr)
		filter.PaymentStatus = &payStatus
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: result})
}

// AddPayment handles POST /orders/:id/payments
func (h *OrdersHandler) AddPayment(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id format"))
		return
	}

	var req dto.AddPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.AddPayment(c.Request.Context(), orderID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Complete handles POST /orders/:id/complete
func (h *OrdersHandler) Complete(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id format"))
		return
	}

	order, err := h.service.Complete(c.Request.Context(), orderID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrdersHandler) Cancel(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id format"))
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orderID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}
