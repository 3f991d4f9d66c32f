package repositories

import (
	"context"
	"time"

	"aquabill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BillRepository interface {
	WithTx(tx pgx.Tx) BillRepository
	Create(ctx context.Context, bill *models.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	// GetByIDForUpdate locks the bill row for the duration of the enclosing
	// transaction so concurrent payments against the same bill serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, status *string, limit, offset int) ([]*models.Bill, error)
	ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.Bill, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, amountPaid, balance float64, status string) error
	MarkNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type billRepo struct {
	db DB
}

func NewBillRepository(db DB) BillRepository {
	return &billRepo{db: db}
}

func (r *billRepo) WithTx(tx pgx.Tx) BillRepository {
	return &billRepo{db: tx}
}

const billColumns = `id, bill_number, reading_id, meter_number, billing_period, previous_reading, current_reading, consumption, water_charge, arrears, total_amount, amount_paid, balance, status, bill_date, due_date, notification_sent, notified_at, created_at, updated_at`

func (r *billRepo) Create(ctx context.Context, bill *models.Bill) error {
	query := `
		INSERT INTO bills (id, bill_number, reading_id, meter_number, billing_period, previous_reading, current_reading, consumption, water_charge, arrears, total_amount, amount_paid, balance, status, bill_date, due_date, notification_sent, notified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, bill.ID, bill.BillNumber, bill.ReadingID, bill.MeterNumber, bill.BillingPeriod, bill.PreviousReading, bill.CurrentReading, bill.Consumption, bill.WaterCharge, bill.Arrears, bill.TotalAmount, bill.AmountPaid, bill.Balance, bill.Status, bill.BillDate, bill.DueDate, bill.NotificationSent, bill.NotifiedAt)
	return err
}

func (r *billRepo) scanRow(row pgx.Row) (*models.Bill, error) {
	bill := &models.Bill{}
	err := row.Scan(&bill.ID, &bill.BillNumber, &bill.ReadingID, &bill.MeterNumber, &bill.BillingPeriod, &bill.PreviousReading, &bill.CurrentReading, &bill.Consumption, &bill.WaterCharge, &bill.Arrears, &bill.TotalAmount, &bill.AmountPaid, &bill.Balance, &bill.Status, &bill.BillDate, &bill.DueDate, &bill.NotificationSent, &bill.NotifiedAt, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *billRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *billRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1 FOR UPDATE`
	return r.scanRow(r.db.QueryRow(ctx, query, id))
}

func (r *billRepo) List(ctx context.Context, status *string, limit, offset int) ([]*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY bill_date DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY bill_date DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *billRepo) ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE meter_number = $1
		ORDER BY bill_date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, meterNumber, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *billRepo) collect(rows pgx.Rows) ([]*models.Bill, error) {
	var bills []*models.Bill
	for rows.Next() {
		bill := &models.Bill{}
		if err := rows.Scan(&bill.ID, &bill.BillNumber, &bill.ReadingID, &bill.MeterNumber, &bill.BillingPeriod, &bill.PreviousReading, &bill.CurrentReading, &bill.Consumption, &bill.WaterCharge, &bill.Arrears, &bill.TotalAmount, &bill.AmountPaid, &bill.Balance, &bill.Status, &bill.BillDate, &bill.DueDate, &bill.NotificationSent, &bill.NotifiedAt, &bill.CreatedAt, &bill.UpdatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (r *billRepo) ApplyPayment(ctx context.Context, id uuid.UUID, amountPaid, balance float64, status string) error {
	query := `
		UPDATE bills
		SET amount_paid = $2, balance = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id, amountPaid, balance, status)
	return err
}

func (r *billRepo) MarkNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE bills
		SET notification_sent = TRUE, notified_at = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id, sentAt)
	return err
}

// MarkOverdue flips unpaid bills past their due date to overdue and returns
// the number of bills affected.
func (r *billRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE bills
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3) AND due_date < $4
	`
	tag, err := r.db.Exec(ctx, query, models.BillStatusOverdue, models.BillStatusPending, models.BillStatusPartiallyPaid, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
