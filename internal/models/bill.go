package models

import (
	"time"

	"github.com/google/uuid"
)

// Bill statuses. A bill starts pending, moves to partially_paid/paid as
// payments land, and to overdue when the due date passes unpaid.
const (
	BillStatusPending       = "pending"
	BillStatusPartiallyPaid = "partially_paid"
	BillStatusPaid          = "paid"
	BillStatusOverdue       = "overdue"
)

// Bill is generated 1:1 from a meter reading. Payment fields are mutated only
// by the billing service; the notification flag only by the bill notifier.
type Bill struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	BillNumber       string     `json:"bill_number" db:"bill_number"`
	ReadingID        uuid.UUID  `json:"reading_id" db:"reading_id"`
	MeterNumber      string     `json:"meter_number" db:"meter_number"`
	BillingPeriod    string     `json:"billing_period" db:"billing_period"`
	PreviousReading  float64    `json:"previous_reading" db:"previous_reading"`
	CurrentReading   float64    `json:"current_reading" db:"current_reading"`
	Consumption      float64    `json:"consumption" db:"consumption"`
	WaterCharge      float64    `json:"water_charge" db:"water_charge"`
	Arrears          float64    `json:"arrears" db:"arrears"`
	TotalAmount      float64    `json:"total_amount" db:"total_amount"`
	AmountPaid       float64    `json:"amount_paid" db:"amount_paid"`
	Balance          float64    `json:"balance" db:"balance"`
	Status           string     `json:"status" db:"status"`
	BillDate         time.Time  `json:"bill_date" db:"bill_date"`
	DueDate          time.Time  `json:"due_date" db:"due_date"`
	NotificationSent bool       `json:"notification_sent" db:"notification_sent"`
	NotifiedAt       *time.Time `json:"notified_at" db:"notified_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
