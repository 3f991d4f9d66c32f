package repositories

import (
	"context"

	"aquabill/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepository is append-only: payment records are never mutated.
type PaymentRepository interface {
	WithTx(tx pgx.Tx) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*models.Payment, error)
	ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.Payment, error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) WithTx(tx pgx.Tx) PaymentRepository {
	return &paymentRepo{db: tx}
}

const paymentColumns = `id, bill_id, meter_number, amount, method, transaction_id, receipt_number, collected_by, status, paid_at, created_at`

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, bill_id, meter_number, amount, method, transaction_id, receipt_number, collected_by, status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`
	_, err := r.db.Exec(ctx, query, payment.ID, payment.BillID, payment.MeterNumber, payment.Amount, payment.Method, payment.TransactionID, payment.ReceiptNumber, payment.CollectedBy, payment.Status, payment.PaidAt)
	return err
}

func (r *paymentRepo) ListByBill(ctx context.Context, billID uuid.UUID) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE bill_id = $1
		ORDER BY paid_at ASC
	`
	rows, err := r.db.Query(ctx, query, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *paymentRepo) ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE meter_number = $1
		ORDER BY paid_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, meterNumber, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *paymentRepo) collect(rows pgx.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		if err := rows.Scan(&payment.ID, &payment.BillID, &payment.MeterNumber, &payment.Amount, &payment.Method, &payment.TransactionID, &payment.ReceiptNumber, &payment.CollectedBy, &payment.Status, &payment.PaidAt, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
