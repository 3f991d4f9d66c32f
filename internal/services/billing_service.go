package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"aquabill/internal/common"
	"aquabill/internal/models"
	"aquabill/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/gommon/random"
)

// BillingConfig carries the billing engine's injected settings. The per-unit
// rate is a flat system-wide value today; customers with a non-zero
// rate_per_unit override it, which keeps the door open for per-tariff pricing.
type BillingConfig struct {
	RatePerUnit      float64
	AllowOverpayment bool
	TxTimeout        time.Duration
}

// DefaultBillingConfig returns the engine defaults: flat rate 100 per unit,
// overpayment recorded as customer credit, 10 second transaction deadline.
func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		RatePerUnit:      100,
		AllowOverpayment: true,
		TxTimeout:        10 * time.Second,
	}
}

// BillingServiceInterface is the billing engine: the only component allowed
// to mutate customer balances, readings, bills and payments.
type BillingServiceInterface interface {
	SubmitReading(ctx context.Context, meterNumber string, currentReading float64, readingDate time.Time, readerID, method string) (*models.Bill, error)
	RecordPayment(ctx context.Context, billID uuid.UUID, amount float64, method string, transactionID *string, receiptNumber *string, collectedBy string) (*models.Payment, error)
}

type billingService struct {
	db           repositories.Pool
	customerRepo repositories.CustomerRepository
	readingRepo  repositories.ReadingRepository
	billRepo     repositories.BillRepository
	paymentRepo  repositories.PaymentRepository
	notifier     BillNotifier
	cfg          BillingConfig
}

// NewBillingService creates the billing engine over a transactional pool.
func NewBillingService(db repositories.Pool, customerRepo repositories.CustomerRepository, readingRepo repositories.ReadingRepository, billRepo repositories.BillRepository, paymentRepo repositories.PaymentRepository, notifier BillNotifier, cfg BillingConfig) BillingServiceInterface {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 10 * time.Second
	}
	return &billingService{
		db:           db,
		customerRepo: customerRepo,
		readingRepo:  readingRepo,
		billRepo:     billRepo,
		paymentRepo:  paymentRepo,
		notifier:     notifier,
		cfg:          cfg,
	}
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubmitReading converts a cumulative meter reading into a reading record, a
// generated bill and an updated customer balance. All writes commit as one
// transaction; the customer row is locked for its duration so two concurrent
// submissions for the same meter cannot bill the same consumption interval
// twice. The SMS notification runs after commit and never blocks or fails
// the submission.
func (s *billingService) SubmitReading(ctx context.Context, meterNumber string, currentReading float64, readingDate time.Time, readerID, method string) (*models.Bill, error) {
	if readingDate.IsZero() {
		readingDate = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reading submission: %w", err)
	}
	defer tx.Rollback(ctx)

	customers := s.customerRepo.WithTx(tx)
	readings := s.readingRepo.WithTx(tx)
	bills := s.billRepo.WithTx(tx)

	customer, err := customers.GetByMeterNumberForUpdate(ctx, meterNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("lookup customer %s: %w", meterNumber, err)
	}

	// Previous reading is the latest submission for this meter, or the
	// initial reading recorded at onboarding if none exists yet.
	previous := customer.LastReading
	latest, err := readings.LatestByMeter(ctx, meterNumber)
	if err == nil {
		previous = latest.CurrentReading
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup previous reading for %s: %w", meterNumber, err)
	}

	consumption := currentReading - previous
	if consumption < 0 {
		return nil, fmt.Errorf("%w: current %.2f, previous %.2f", common.ErrInvalidReading, currentReading, previous)
	}

	rate := s.cfg.RatePerUnit
	if customer.RatePerUnit > 0 {
		rate = customer.RatePerUnit
	}

	waterCharge := round2(consumption * rate)
	arrears := 0.0
	if customer.Balance < 0 {
		arrears = -customer.Balance
	}
	totalAmount := round2(waterCharge + arrears)

	reading := &models.MeterReading{
		ID:              uuid.New(),
		MeterNumber:     meterNumber,
		PreviousReading: previous,
		CurrentReading:  currentReading,
		Consumption:     consumption,
		RateApplied:     rate,
		WaterCharge:     waterCharge,
		BillingPeriod:   readingDate.Format("2006-01"),
		ReadBy:          readerID,
		Method:          method,
		ReadingDate:     readingDate,
	}
	if err := readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("insert meter reading: %w", err)
	}

	bill := &models.Bill{
		ID:              uuid.New(),
		BillNumber:      fmt.Sprintf("BILL-%s-%s", meterNumber, readingDate.Format("200601")),
		ReadingID:       reading.ID,
		MeterNumber:     meterNumber,
		BillingPeriod:   reading.BillingPeriod,
		PreviousReading: previous,
		CurrentReading:  currentReading,
		Consumption:     consumption,
		WaterCharge:     waterCharge,
		Arrears:         arrears,
		TotalAmount:     totalAmount,
		AmountPaid:      0,
		Balance:         totalAmount,
		Status:          models.BillStatusPending,
		BillDate:        readingDate,
		DueDate:         readingDate.AddDate(0, 1, 0),
	}
	if err := bills.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("insert bill %s: %w", bill.BillNumber, err)
	}

	if err := customers.ApplyReading(ctx, meterNumber, currentReading, readingDate, consumption, totalAmount); err != nil {
		return nil, fmt.Errorf("update customer %s: %w", meterNumber, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reading submission: %w", err)
	}

	s.dispatchNotification(customer, bill, reading)

	return bill, nil
}

// dispatchNotification fires the bill SMS off the request path. Failures are
// logged by the notifier and never reach the submitter.
func (s *billingService) dispatchNotification(customer *models.Customer, bill *models.Bill, reading *models.MeterReading) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in bill notification dispatch for %s: %v", bill.BillNumber, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.notifier.NotifyBillIssued(ctx, customer, bill, reading)
	}()
}

// RecordPayment records a payment against a bill, updates the bill's paid
// amount and status, and credits the customer balance — all in one
// transaction. The bill row is locked so concurrent payments serialize.
func (s *billingService) RecordPayment(ctx context.Context, billID uuid.UUID, amount float64, method string, transactionID *string, receiptNumber *string, collectedBy string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", common.ErrInvalidAmount, amount)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin payment: %w", err)
	}
	defer tx.Rollback(ctx)

	bills := s.billRepo.WithTx(tx)
	payments := s.paymentRepo.WithTx(tx)
	customers := s.customerRepo.WithTx(tx)

	bill, err := bills.GetByIDForUpdate(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrBillNotFound
		}
		return nil, fmt.Errorf("lookup bill %s: %w", billID, err)
	}

	if !s.cfg.AllowOverpayment && amount > bill.Balance {
		return nil, fmt.Errorf("%w: amount %.2f, bill balance %.2f", common.ErrOverpayment, amount, bill.Balance)
	}

	// Customer row is locked too: SubmitReading and RecordPayment both touch
	// the balance and must not interleave.
	if _, err := customers.GetByMeterNumberForUpdate(ctx, bill.MeterNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("lookup customer %s: %w", bill.MeterNumber, err)
	}

	receipt := common.SafeString(receiptNumber)
	if receipt == "" {
		receipt = fmt.Sprintf("RCPT-%s", random.String(10, random.Numeric))
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		BillID:        bill.ID,
		MeterNumber:   bill.MeterNumber,
		Amount:        amount,
		Method:        method,
		TransactionID: transactionID,
		ReceiptNumber: receipt,
		CollectedBy:   collectedBy,
		Status:        "completed",
		PaidAt:        time.Now(),
	}
	if err := payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	amountPaid := round2(bill.AmountPaid + amount)
	balance := round2(bill.TotalAmount - amountPaid)

	status := bill.Status
	switch {
	case balance <= 0:
		status = models.BillStatusPaid
	case bill.Status == models.BillStatusPending:
		status = models.BillStatusPartiallyPaid
	}
	// An overdue bill stays overdue until fully settled.

	if err := bills.ApplyPayment(ctx, bill.ID, amountPaid, balance, status); err != nil {
		return nil, fmt.Errorf("update bill %s: %w", bill.BillNumber, err)
	}

	if err := customers.ApplyPayment(ctx, bill.MeterNumber, amount); err != nil {
		return nil, fmt.Errorf("update customer %s: %w", bill.MeterNumber, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	return payment, nil
}
