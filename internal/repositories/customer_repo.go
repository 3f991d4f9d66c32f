package repositories

import (
	"context"
	"fmt"
	"time"

	"aquabill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	WithTx(tx pgx.Tx) CustomerRepository
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByMeterNumber(ctx context.Context, meterNumber string) (*models.Customer, error)
	// GetByMeterNumberForUpdate locks the customer row for the duration of the
	// enclosing transaction. This serializes concurrent submissions and
	// payments for the same meter.
	GetByMeterNumberForUpdate(ctx context.Context, meterNumber string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, filter *models.CustomerSearchFilter) ([]*models.Customer, error)
	ApplyReading(ctx context.Context, meterNumber string, lastReading float64, readingDate time.Time, consumption, totalAmount float64) error
	ApplyPayment(ctx context.Context, meterNumber string, amount float64) error
}

type customerRepo struct {
	db DB
}

func NewCustomerRepository(db DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) WithTx(tx pgx.Tx) CustomerRepository {
	return &customerRepo{db: tx}
}

const customerColumns = `id, meter_number, full_name, phone, address, zone, rate_per_unit, fixed_charge, last_reading, last_reading_date, balance, total_consumed, total_paid, status, created_at, updated_at`

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, meter_number, full_name, phone, address, zone, rate_per_unit, fixed_charge, last_reading, last_reading_date, balance, total_consumed, total_paid, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, customer.ID, customer.MeterNumber, customer.FullName, customer.Phone, customer.Address, customer.Zone, customer.RatePerUnit, customer.FixedCharge, customer.LastReading, customer.LastReadingDate, customer.Balance, customer.TotalConsumed, customer.TotalPaid, customer.Status)
	return err
}

func (r *customerRepo) scanRow(row pgx.Row) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(&customer.ID, &customer.MeterNumber, &customer.FullName, &customer.Phone, &customer.Address, &customer.Zone, &customer.RatePerUnit, &customer.FixedCharge, &customer.LastReading, &customer.LastReadingDate, &customer.Balance, &customer.TotalConsumed, &customer.TotalPaid, &customer.Status, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *customerRepo) GetByMeterNumber(ctx context.Context, meterNumber string) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE meter_number = $1`, customerColumns)
	return r.scanRow(r.db.QueryRow(ctx, query, meterNumber))
}

func (r *customerRepo) GetByMeterNumberForUpdate(ctx context.Context, meterNumber string) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE meter_number = $1 FOR UPDATE`, customerColumns)
	return r.scanRow(r.db.QueryRow(ctx, query, meterNumber))
}

// Update writes profile fields only. Billing state (readings, balances,
// totals) goes through ApplyReading/ApplyPayment inside a transaction.
func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET full_name = $1, phone = $2, address = $3, zone = $4, rate_per_unit = $5, fixed_charge = $6, status = $7, updated_at = NOW()
		WHERE id = $8
	`
	_, err := r.db.Exec(ctx, query, customer.FullName, customer.Phone, customer.Address, customer.Zone, customer.RatePerUnit, customer.FixedCharge, customer.Status, customer.ID)
	return err
}

func (r *customerRepo) List(ctx context.Context, filter *models.CustomerSearchFilter) ([]*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE 1=1`, customerColumns)
	args := []any{}
	argPos := 1

	if filter.Zone != nil {
		query += fmt.Sprintf(` AND zone = $%d`, argPos)
		args = append(args, *filter.Zone)
		argPos++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(` AND (full_name ILIKE $%d OR meter_number ILIKE $%d)`, argPos, argPos)
		args = append(args, "%"+filter.Query+"%")
		argPos++
	}

	query += fmt.Sprintf(` ORDER BY full_name ASC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		if err := rows.Scan(&customer.ID, &customer.MeterNumber, &customer.FullName, &customer.Phone, &customer.Address, &customer.Zone, &customer.RatePerUnit, &customer.FixedCharge, &customer.LastReading, &customer.LastReadingDate, &customer.Balance, &customer.TotalConsumed, &customer.TotalPaid, &customer.Status, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

// ApplyReading advances the meter state after a billed submission. Must run
// inside the same transaction that inserts the reading and the bill, with the
// customer row already locked.
func (r *customerRepo) ApplyReading(ctx context.Context, meterNumber string, lastReading float64, readingDate time.Time, consumption, totalAmount float64) error {
	query := `
		UPDATE customers
		SET last_reading = $2, last_reading_date = $3, total_consumed = total_consumed + $4, balance = balance - $5, updated_at = NOW()
		WHERE meter_number = $1
	`
	_, err := r.db.Exec(ctx, query, meterNumber, lastReading, readingDate, consumption, totalAmount)
	return err
}

// ApplyPayment credits a recorded payment onto the customer balance. Must run
// inside the payment transaction.
func (r *customerRepo) ApplyPayment(ctx context.Context, meterNumber string, amount float64) error {
	query := `
		UPDATE customers
		SET balance = balance + $2, total_paid = total_paid + $2, updated_at = NOW()
		WHERE meter_number = $1
	`
	_, err := r.db.Exec(ctx, query, meterNumber, amount)
	return err
}
