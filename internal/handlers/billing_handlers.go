package handlers

import (
	"net/http"
	"strconv"
	"time"

	"aquabill/internal/common"
	"aquabill/internal/repositories"
	"aquabill/internal/services"

	"github.com/labstack/echo/v4"
)

// BillingHandlers translates reading submissions and payment captures into
// billing engine calls.
type BillingHandlers struct {
	billingService services.BillingServiceInterface
	readingRepo    repositories.ReadingRepository
	paymentRepo    repositories.PaymentRepository
}

// NewBillingHandlers creates a new billing handlers instance
func NewBillingHandlers(billingService services.BillingServiceInterface, readingRepo repositories.ReadingRepository, paymentRepo repositories.PaymentRepository) *BillingHandlers {
	return &BillingHandlers{
		billingService: billingService,
		readingRepo:    readingRepo,
		paymentRepo:    paymentRepo,
	}
}

// SubmitReading handles POST /readings
func (h *BillingHandlers) SubmitReading(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		MeterNumber    string  `json:"meter_number"`
		CurrentReading float64 `json:"current_reading"`
		ReadingDate    *string `json:"reading_date"`
		Method         string  `json:"method"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	meterNumber, err := common.ValidateMeterNumber(req.MeterNumber)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	readingDate := time.Now()
	if req.ReadingDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ReadingDate)
		if err != nil {
			return common.SendValidationError(c, "reading_date", "must be RFC3339 formatted")
		}
		readingDate = parsed
	}

	method := req.Method
	if method == "" {
		method = "manual"
	}

	readerID := ""
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		readerID = userID.String()
	}

	bill, err := h.billingService.SubmitReading(ctx, meterNumber, req.CurrentReading, readingDate, readerID, method)
	if err != nil {
		switch {
		case common.IsNotFound(err):
			return common.SendNotFoundError(c, "customer")
		case common.IsValidation(err):
			return common.SendValidationError(c, "current_reading", err.Error())
		default:
			return common.SendServerError(c, "Failed to submit reading")
		}
	}

	return c.JSON(http.StatusCreated, bill)
}

// ListReadings handles GET /customers/:meterNumber/readings
func (h *BillingHandlers) ListReadings(c echo.Context) error {
	ctx := c.Request().Context()

	meterNumber, err := common.ValidateMeterNumber(c.Param("meterNumber"))
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	readings, err := h.readingRepo.ListByMeter(ctx, meterNumber, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list readings")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"readings": readings,
		"limit":    limit,
		"offset":   offset,
	})
}

// RecordPayment handles POST /payments
func (h *BillingHandlers) RecordPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		BillID        string  `json:"bill_id"`
		Amount        float64 `json:"amount"`
		Method        string  `json:"method"`
		TransactionID *string `json:"transaction_id"`
		ReceiptNumber *string `json:"receipt_number"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	billID, err := common.ValidateUUID(req.BillID, "bill_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	method := req.Method
	if method == "" {
		method = "cash"
	}

	collectedBy := ""
	if userID, ok := common.GetUserIDFromContext(ctx); ok {
		collectedBy = userID.String()
	}

	payment, err := h.billingService.RecordPayment(ctx, billID, req.Amount, method, req.TransactionID, req.ReceiptNumber, collectedBy)
	if err != nil {
		switch {
		case common.IsNotFound(err):
			return common.SendNotFoundError(c, "bill")
		case common.IsValidation(err):
			return common.SendValidationError(c, "amount", err.Error())
		default:
			return common.SendServerError(c, "Failed to record payment")
		}
	}

	return c.JSON(http.StatusCreated, payment)
}

// ListBillPayments handles GET /bills/:id/payments
func (h *BillingHandlers) ListBillPayments(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	payments, err := h.paymentRepo.ListByBill(ctx, billID)
	if err != nil {
		return common.SendServerError(c, "Failed to list payments")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"payments": payments,
	})
}
