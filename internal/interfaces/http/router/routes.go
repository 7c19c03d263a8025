package router

import (
	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/handler"
)

// SupplierRoutes maps the supplier ledger endpoints
func SupplierRoutes(h *handler.SupplierHandler) *DomainGroup {
	return NewDomainGroup("suppliers", "/suppliers").
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id/credit-terms", h.UpdateCreditTerms).
		POST("/:id/adjustments", h.RecordAdjustment).
		POST("/:id/discounts", h.RecordDiscount).
		GET("/:id/transactions", h.GetTransactions)
}

// PurchaseRoutes maps the purchase, return and payment endpoints.
// idempotency guards payment submission only.
func PurchaseRoutes(h *handler.PurchaseHandler, idempotency gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("purchases", "/purchases").
		POST("", h.Create).
		GET("/:id", h.GetByID).
		POST("/:id/ordered", h.MarkOrdered).
		POST("/:id/received", h.MarkReceived).
		POST("/:id/complete", h.Complete).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/returns", h.CreateReturn).
		GET("/:id/returns", h.ListReturns).
		POST("/:id/payments", idempotency, h.RecordPayment).
		GET("/:id/payments", h.GetPayments)
}
