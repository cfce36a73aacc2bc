// README: Stripe webhook endpoint.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stripe rejects webhook payloads above this size anyway.
const maxWebhookBytes = 64 << 10

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentHandler struct {
	payments WebhookHandler
}

func NewPaymentHandler(payments WebhookHandler) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		writeError(c, http.StatusBadRequest, "unreadable payload")
		return
	}
	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"received": true})
}
