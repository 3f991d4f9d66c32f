package repositories

import (
	"context"

	"aquabill/internal/models"

	"github.com/jackc/pgx/v5"
)

// ReadingRepository is append-only: meter readings are never updated or
// deleted once written.
type ReadingRepository interface {
	WithTx(tx pgx.Tx) ReadingRepository
	Create(ctx context.Context, reading *models.MeterReading) error
	LatestByMeter(ctx context.Context, meterNumber string) (*models.MeterReading, error)
	ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.MeterReading, error)
}

type readingRepo struct {
	db DB
}

func NewReadingRepository(db DB) ReadingRepository {
	return &readingRepo{db: db}
}

func (r *readingRepo) WithTx(tx pgx.Tx) ReadingRepository {
	return &readingRepo{db: tx}
}

func (r *readingRepo) Create(ctx context.Context, reading *models.MeterReading) error {
	query := `
		INSERT INTO meter_readings (id, meter_number, previous_reading, current_reading, consumption, rate_applied, water_charge, billing_period, read_by, method, reading_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := r.db.Exec(ctx, query, reading.ID, reading.MeterNumber, reading.PreviousReading, reading.CurrentReading, reading.Consumption, reading.RateApplied, reading.WaterCharge, reading.BillingPeriod, reading.ReadBy, reading.Method, reading.ReadingDate)
	return err
}

const readingColumns = `id, meter_number, previous_reading, current_reading, consumption, rate_applied, water_charge, billing_period, read_by, method, reading_date, created_at`

func (r *readingRepo) LatestByMeter(ctx context.Context, meterNumber string) (*models.MeterReading, error) {
	reading := &models.MeterReading{}
	query := `
		SELECT ` + readingColumns + `
		FROM meter_readings
		WHERE meter_number = $1
		ORDER BY reading_date DESC, created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, meterNumber).Scan(&reading.ID, &reading.MeterNumber, &reading.PreviousReading, &reading.CurrentReading, &reading.Consumption, &reading.RateApplied, &reading.WaterCharge, &reading.BillingPeriod, &reading.ReadBy, &reading.Method, &reading.ReadingDate, &reading.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reading, nil
}

func (r *readingRepo) ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.MeterReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM meter_readings
		WHERE meter_number = $1
		ORDER BY reading_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, meterNumber, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*models.MeterReading
	for rows.Next() {
		reading := &models.MeterReading{}
		if err := rows.Scan(&reading.ID, &reading.MeterNumber, &reading.PreviousReading, &reading.CurrentReading, &reading.Consumption, &reading.RateApplied, &reading.WaterCharge, &reading.BillingPeriod, &reading.ReadBy, &reading.Method, &reading.ReadingDate, &reading.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}
