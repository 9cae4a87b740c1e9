package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	midtrans *services.MidtransService
	stats    *services.StatsService
}

func NewPaymentHandler(payments *services.PaymentService, midtrans *services.MidtransService, stats *services.StatsService) *PaymentHandler {
	return &PaymentHandler{payments: payments, midtrans: midtrans, stats: stats}
}

// ListPayments returns the trainer's payments, optionally for one client
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	payments, err := h.payments.List(ctx, trainerID(c), uintQuery(c, "client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// RecordPayment stores a manual payment, creating the package purchase
// alongside when a package template is given
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	var input services.RecordPaymentInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	payment, err := h.payments.Record(ctx, trainerID(c), input)
	if err != nil {
		return err
	}
	h.stats.Invalidate(ctx, trainerID(c))
	return c.JSON(http.StatusCreated, payment)
}

type paymentStatusInput struct {
	Status models.PaymentStatus `json:"status"`
}

// UpdatePaymentStatus changes a payment's status. Refunding leaves any
// linked package credits untouched.
func (h *PaymentHandler) UpdatePaymentStatus(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var input paymentStatusInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	payment, err := h.payments.UpdateStatus(ctx, trainerID(c), id, input.Status)
	if err != nil {
		return err
	}
	h.stats.Invalidate(ctx, trainerID(c))
	return c.JSON(http.StatusOK, payment)
}

type checkoutInput struct {
	ClientID    uint   `json:"client_id"`
	PackageID   uint   `json:"package_id"`
	CallbackURL string `json:"callback_url"`
	ForceNew    bool   `json:"force_new"`
}

// InitiateCheckout starts an online checkout for a package purchase
func (h *PaymentHandler) InitiateCheckout(c echo.Context) error {
	var input checkoutInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if input.ClientID == 0 || input.PackageID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id and package_id are required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.payments.InitiateCheckout(ctx, trainerID(c), input.ClientID, input.PackageID, input.CallbackURL, input.ForceNew)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// HandleMidtransNotification is the public webhook the gateway calls
// with transaction status changes. Always answers 200 once the payload
// is authentic so the gateway stops retrying.
func (h *PaymentHandler) HandleMidtransNotification(c echo.Context) error {
	var notif midtransNotification
	if err := c.Bind(&notif); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification payload")
	}
	if notif.OrderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing order_id")
	}

	if !h.midtrans.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		log.Printf("midtrans notification with bad signature for order %s", notif.OrderID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.payments.HandleNotification(ctx, notif.OrderID, notif.TransactionStatus, notif.FraudStatus); err != nil {
		log.Printf("failed to process midtrans notification for order %s: %v", notif.OrderID, err)
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
