package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	partnerapp "github.com/subhransupk/shelfcure-sub008/internal/application/partner"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/middleware"
)

// SupplierHandler serves supplier balances and the manual ledger operations
type SupplierHandler struct {
	BaseHandler
	service *partnerapp.SupplierLedgerService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(service *partnerapp.SupplierLedgerService) *SupplierHandler {
	return &SupplierHandler{service: service}
}

// HistoryQuery holds the query string of the transaction history endpoint.
// Dates are RFC 3339 timestamps or YYYY-MM-DD days; a day used as "to"
// includes the whole day.
type HistoryQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @Summary      Create a supplier
// @Tags         suppliers
// @Router       /suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req partnerapp.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	supplier, err := h.service.CreateSupplier(c.Request.Context(), tenantID, req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// GetByID godoc
// @Summary      Get a supplier's balance summary
// @Tags         suppliers
// @Router       /suppliers/{id} [get]
func (h *SupplierHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.pathID(c, "supplier ID")
	if !ok {
		return
	}

	supplier, err := h.service.GetSupplier(c.Request.Context(), tenantID, supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// UpdateCreditTerms godoc
// @Summary      Change a supplier's credit limit and credit days
// @Tags         suppliers
// @Router       /suppliers/{id}/credit-terms [put]
func (h *SupplierHandler) UpdateCreditTerms(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.pathID(c, "supplier ID")
	if !ok {
		return
	}
	var req partnerapp.UpdateCreditTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	supplier, err := h.service.UpdateCreditTerms(c.Request.Context(), tenantID, supplierID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// RecordAdjustment godoc
// @Summary      Record a manual balance adjustment
// @Tags         suppliers
// @Router       /suppliers/{id}/adjustments [post]
func (h *SupplierHandler) RecordAdjustment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.pathID(c, "supplier ID")
	if !ok {
		return
	}
	var req partnerapp.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.RecordAdjustment(c.Request.Context(), tenantID, supplierID, req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RecordDiscount godoc
// @Summary      Record a discount granted by the supplier
// @Tags         suppliers
// @Router       /suppliers/{id}/discounts [post]
func (h *SupplierHandler) RecordDiscount(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.pathID(c, "supplier ID")
	if !ok {
		return
	}
	var req partnerapp.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.RecordDiscount(c.Request.Context(), tenantID, supplierID, req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetTransactions godoc
// @Summary      List a supplier's ledger entries, newest first
// @Tags         suppliers
// @Router       /suppliers/{id}/transactions [get]
func (h *SupplierHandler) GetTransactions(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.pathID(c, "supplier ID")
	if !ok {
		return
	}
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := partnerapp.HistoryFilter{Type: q.Type, Page: q.Page, PageSize: q.PageSize}
	var err error
	if filter.From, err = parseDate(q.From, false); err != nil {
		h.BadRequest(c, "Invalid from date")
		return
	}
	if filter.To, err = parseDate(q.To, true); err != nil {
		h.BadRequest(c, "Invalid to date")
		return
	}

	history, err := h.service.GetTransactionHistory(c.Request.Context(), tenantID, supplierID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, history, history.Total, history.Page, history.PageSize)
}

func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
