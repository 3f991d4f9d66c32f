package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a water connection account. The meter number is the
// immutable business key; balance and reading fields are mutated only by the
// billing service, never directly by handlers.
type Customer struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	MeterNumber     string     `json:"meter_number" db:"meter_number"`
	FullName        string     `json:"full_name" db:"full_name"`
	Phone           string     `json:"phone" db:"phone"`
	Address         *string    `json:"address" db:"address"`
	Zone            string     `json:"zone" db:"zone"`
	RatePerUnit     float64    `json:"rate_per_unit" db:"rate_per_unit"`
	FixedCharge     float64    `json:"fixed_charge" db:"fixed_charge"`
	LastReading     float64    `json:"last_reading" db:"last_reading"`
	LastReadingDate *time.Time `json:"last_reading_date" db:"last_reading_date"`
	Balance         float64    `json:"balance" db:"balance"`
	TotalConsumed   float64    `json:"total_consumed" db:"total_consumed"`
	TotalPaid       float64    `json:"total_paid" db:"total_paid"`
	Status          string     `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// CustomerSearchFilter holds list/filter criteria for customer queries
type CustomerSearchFilter struct {
	Query  string `json:"query,omitempty"`
	Zone   *string `json:"zone,omitempty"`
	Status *string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
