package models

import (
	"time"

	"github.com/google/uuid"
)

// MeterReading is an append-only record of one meter reading submission.
// Rows are never updated or deleted after insert.
type MeterReading struct {
	ID              uuid.UUID `json:"id" db:"id"`
	MeterNumber     string    `json:"meter_number" db:"meter_number"`
	PreviousReading float64   `json:"previous_reading" db:"previous_reading"`
	CurrentReading  float64   `json:"current_reading" db:"current_reading"`
	Consumption     float64   `json:"consumption" db:"consumption"`
	RateApplied     float64   `json:"rate_applied" db:"rate_applied"`
	WaterCharge     float64   `json:"water_charge" db:"water_charge"`
	BillingPeriod   string    `json:"billing_period" db:"billing_period"` // "YYYY-MM"
	ReadBy          string    `json:"read_by" db:"read_by"`
	Method          string    `json:"method" db:"method"`
	ReadingDate     time.Time `json:"reading_date" db:"reading_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
