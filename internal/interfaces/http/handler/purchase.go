package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/subhransupk/shelfcure-sub008/internal/application/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/trade"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/middleware"
)

// PurchaseHandler serves the purchase lifecycle, returns and payments
type PurchaseHandler struct {
	BaseHandler
	purchases *tradeapp.PurchaseService
	payments  *tradeapp.PaymentLedger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchases *tradeapp.PurchaseService, payments *tradeapp.PaymentLedger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, payments: payments}
}

// Create godoc
// @Summary      Raise a purchase with a new purchase number
// @Tags         purchases
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req tradeapp.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	purchase, err := h.purchases.CreatePurchase(c.Request.Context(), tenantID, req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, purchase)
}

// GetByID godoc
// @Summary      Get a purchase
// @Tags         purchases
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	h.withPurchase(c, h.purchases.GetPurchase)
}

// MarkOrdered godoc
// @Summary      Move a draft purchase to ordered
// @Tags         purchases
// @Router       /purchases/{id}/ordered [post]
func (h *PurchaseHandler) MarkOrdered(c *gin.Context) {
	h.withPurchase(c, h.purchases.MarkOrdered)
}

// MarkReceived godoc
// @Summary      Record that the goods of a purchase arrived
// @Tags         purchases
// @Router       /purchases/{id}/received [post]
func (h *PurchaseHandler) MarkReceived(c *gin.Context) {
	h.withPurchase(c, h.purchases.MarkReceived)
}

// Cancel godoc
// @Summary      Cancel a purchase that has no payments
// @Tags         purchases
// @Router       /purchases/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	h.withPurchase(c, h.purchases.Cancel)
}

// Complete godoc
// @Summary      Complete a purchase and grant its credit to the supplier
// @Tags         purchases
// @Router       /purchases/{id}/complete [post]
func (h *PurchaseHandler) Complete(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	h.withPurchase(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseResponse, error) {
		return h.purchases.Complete(ctx, tenantID, id, actorID)
	})
}

func (h *PurchaseHandler) withPurchase(c *gin.Context, op func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.pathID(c, "purchase ID")
	if !ok {
		return
	}

	purchase, err := op(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchase)
}

// CreateReturn godoc
// @Summary      Return goods against a purchase
// @Tags         purchases
// @Router       /purchases/{id}/returns [post]
func (h *PurchaseHandler) CreateReturn(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.pathID(c, "purchase ID")
	if !ok {
		return
	}
	var req tradeapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ret, err := h.purchases.CreateReturn(c.Request.Context(), tenantID, purchaseID, req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// ListReturns godoc
// @Summary      List the returns of a purchase
// @Tags         purchases
// @Router       /purchases/{id}/returns [get]
func (h *PurchaseHandler) ListReturns(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.pathID(c, "purchase ID")
	if !ok {
		return
	}

	returns, err := h.purchases.ListReturns(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, returns)
}

// RecordPayment godoc
// @Summary      Pay towards a purchase
// @Description  Accepts an Idempotency-Key header; a replayed key is rejected with 409.
// @Tags         purchases
// @Router       /purchases/{id}/payments [post]
func (h *PurchaseHandler) RecordPayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.pathID(c, "purchase ID")
	if !ok {
		return
	}
	var req tradeapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), tradeapp.RecordPaymentCommand{
		TenantID:       tenantID,
		PurchaseID:     purchaseID,
		Amount:         req.Amount,
		Method:         trade.PaymentMethod(req.Method),
		TransactionID:  req.TransactionID,
		Notes:          req.Notes,
		ActorID:        middleware.GetUserID(c),
		IdempotencyKey: middleware.GetIdempotencyKey(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetPayments godoc
// @Summary      Get the payment summary and records of a purchase
// @Tags         purchases
// @Router       /purchases/{id}/payments [get]
func (h *PurchaseHandler) GetPayments(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.pathID(c, "purchase ID")
	if !ok {
		return
	}

	history, err := h.payments.GetPaymentHistory(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}
