package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"aquabill/internal/models"
	"aquabill/internal/repositories"
)

// BillNotifier delivers the bill summary SMS and records the outcome on the
// bill. Send failures are logged and leave the notification flag unset; they
// never surface to the billing caller.
type BillNotifier interface {
	NotifyBillIssued(ctx context.Context, customer *models.Customer, bill *models.Bill, reading *models.MeterReading)
}

type billNotifier struct {
	gateway  SMSGateway
	billRepo repositories.BillRepository
}

func NewBillNotifier(gateway SMSGateway, billRepo repositories.BillRepository) BillNotifier {
	return &billNotifier{
		gateway:  gateway,
		billRepo: billRepo,
	}
}

func (n *billNotifier) NotifyBillIssued(ctx context.Context, customer *models.Customer, bill *models.Bill, reading *models.MeterReading) {
	message := FormatBillMessage(customer, bill, reading)

	if err := n.gateway.Send(ctx, customer.Phone, message); err != nil {
		log.Printf("Failed to send notification for bill %s: %v", bill.BillNumber, err)
		return
	}

	if err := n.billRepo.MarkNotificationSent(ctx, bill.ID, time.Now()); err != nil {
		log.Printf("Failed to mark bill %s as notified: %v", bill.BillNumber, err)
	}
}

// FormatBillMessage renders the customer-facing SMS for a generated bill.
func FormatBillMessage(customer *models.Customer, bill *models.Bill, reading *models.MeterReading) string {
	return fmt.Sprintf(
		"Dear %s, your water bill for %s is ready. Previous reading: %.1f, Current reading: %.1f. Consumption: %.1f units x %.2f = %.2f. Total due: %.2f. Due date: %s.",
		customer.FullName,
		bill.BillingPeriod,
		bill.PreviousReading,
		bill.CurrentReading,
		bill.Consumption,
		reading.RateApplied,
		bill.WaterCharge,
		bill.TotalAmount,
		bill.DueDate.Format("02 Jan 2006"),
	)
}
