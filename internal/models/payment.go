package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is an immutable record of a single payment against one bill.
type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	BillID        uuid.UUID `json:"bill_id" db:"bill_id"`
	MeterNumber   string    `json:"meter_number" db:"meter_number"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        string    `json:"method" db:"method"`
	TransactionID *string   `json:"transaction_id" db:"transaction_id"`
	ReceiptNumber string    `json:"receipt_number" db:"receipt_number"`
	CollectedBy   string    `json:"collected_by" db:"collected_by"`
	Status        string    `json:"status" db:"status"`
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
