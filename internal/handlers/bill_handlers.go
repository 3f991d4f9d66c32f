package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"aquabill/internal/common"
	"aquabill/internal/models"
	"aquabill/internal/repositories"
	"aquabill/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/jung-kurt/gofpdf"
	"github.com/labstack/echo/v4"
)

// BillHandlers handles HTTP requests for bills
type BillHandlers struct {
	billRepo repositories.BillRepository
	minioSvc services.MinioService
}

// NewBillHandlers creates a new bill handlers instance
func NewBillHandlers(billRepo repositories.BillRepository, minioSvc services.MinioService) *BillHandlers {
	return &BillHandlers{
		billRepo: billRepo,
		minioSvc: minioSvc,
	}
}

// ListBills handles GET /bills
func (h *BillHandlers) ListBills(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var status *string
	if s := c.QueryParam("status"); s != "" {
		if s != models.BillStatusPending && s != models.BillStatusPartiallyPaid && s != models.BillStatusPaid && s != models.BillStatusOverdue {
			return common.SendValidationError(c, "status", "must be one of: pending, partially_paid, paid, overdue")
		}
		status = &s
	}

	bills, err := h.billRepo.List(ctx, status, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list bills")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bills":  bills,
		"limit":  limit,
		"offset": offset,
	})
}

// GetBill handles GET /bills/:id
func (h *BillHandlers) GetBill(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	bill, err := h.billRepo.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "bill")
		}
		return common.SendServerError(c, "Failed to retrieve bill")
	}

	return c.JSON(http.StatusOK, bill)
}

// ListCustomerBills handles GET /customers/:meterNumber/bills
func (h *BillHandlers) ListCustomerBills(c echo.Context) error {
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

	bills, err := h.billRepo.ListByMeter(ctx, meterNumber, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list bills")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bills":  bills,
		"limit":  limit,
		"offset": offset,
	})
}

// GenerateBillPDF handles POST /bills/:id/generate-pdf
// Generates and stores a PDF bill document using MinIO
func (h *BillHandlers) GenerateBillPDF(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	bill, err := h.billRepo.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "bill")
		}
		return common.SendServerError(c, "Failed to retrieve bill")
	}

	pdfBytes, err := h.generateBillPDF(bill)
	if err != nil {
		return common.SendServerError(c, fmt.Sprintf("Failed to generate PDF: %v", err))
	}
	if len(pdfBytes) == 0 {
		return common.SendServerError(c, "Generated PDF is empty")
	}

	bucketName := "bills"
	objectName := fmt.Sprintf("%s.pdf", bill.BillNumber)

	if err := h.minioSvc.EnsureBucketExists(ctx, bucketName); err != nil {
		return common.SendServerError(c, "Failed to prepare document storage")
	}
	if err := h.minioSvc.UploadDocument(ctx, bucketName, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return common.SendServerError(c, "Failed to store PDF")
	}

	url, err := h.minioSvc.GetPresignedURL(bucketName, objectName, 24*time.Hour)
	if err != nil {
		return common.SendServerError(c, "Failed to create download URL")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bill_number": bill.BillNumber,
		"url":         url,
	})
}

func (h *BillHandlers) generateBillPDF(bill *models.Bill) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)

	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "WATER BILL")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Bill Number: %s", bill.BillNumber))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Billing Period: %s", bill.BillingPeriod))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Meter Number: %s", bill.MeterNumber))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Bill Date: %s", bill.BillDate.Format("02-Jan-2006")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Due Date: %s", bill.DueDate.Format("02-Jan-2006")))
	pdf.Ln(13)

	// Readings table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)

	headers := []string{"Previous", "Current", "Consumption", "Charge"}
	colWidths := []float64{40, 40, 45, 45}

	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(255, 255, 255)
	pdf.CellFormat(colWidths[0], 8, fmt.Sprintf("%.1f", bill.PreviousReading), "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[1], 8, fmt.Sprintf("%.1f", bill.CurrentReading), "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[2], 8, fmt.Sprintf("%.1f units", bill.Consumption), "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[3], 8, fmt.Sprintf("%.2f", bill.WaterCharge), "1", 0, "R", false, 0, "")
	pdf.Ln(13)

	// Totals
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(125, 6, "Water Charge:", "", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", bill.WaterCharge), "", 0, "R", false, 0, "")
	pdf.Ln(6)

	if bill.Arrears > 0 {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(125, 5, "Arrears brought forward:", "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 5, fmt.Sprintf("%.2f", bill.Arrears), "", 0, "R", false, 0, "")
		pdf.Ln(5)
	}

	if bill.AmountPaid > 0 {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(125, 5, "Amount paid:", "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 5, fmt.Sprintf("%.2f", bill.AmountPaid), "", 0, "R", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(220, 20, 60)
	pdf.CellFormat(125, 8, "BALANCE DUE:", "", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", bill.Balance), "", 0, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetTextColor(33, 37, 41)
	pdf.SetFont("Arial", "", 8)
	terms := []string{
		"1. Payment is due within 1 month of bill date",
		"2. Unpaid bills are carried forward as arrears on the next bill",
		"3. This is a computer generated bill",
	}
	for _, term := range terms {
		pdf.Cell(0, 5, term)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}
