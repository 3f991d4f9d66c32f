package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"aquabill/internal/models"
	"aquabill/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) WithTx(tx pgx.Tx) repositories.BillRepository {
	m.Called(tx)
	return m
}

func (m *MockBillRepository) Create(ctx context.Context, bill *models.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *MockBillRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *MockBillRepository) List(ctx context.Context, status *string, limit, offset int) ([]*models.Bill, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func (m *MockBillRepository) ListByMeter(ctx context.Context, meterNumber string, limit, offset int) ([]*models.Bill, error) {
	args := m.Called(ctx, meterNumber, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func (m *MockBillRepository) ApplyPayment(ctx context.Context, id uuid.UUID, amountPaid, balance float64, status string) error {
	args := m.Called(ctx, id, amountPaid, balance, status)
	return args.Error(0)
}

func (m *MockBillRepository) MarkNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}

func (m *MockBillRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// recordingGateway captures sent messages for assertion.
type recordingGateway struct {
	phone   string
	message string
	err     error
}

func (g *recordingGateway) Send(ctx context.Context, phone, message string) error {
	g.phone = phone
	g.message = message
	return g.err
}

type BillNotifierTestSuite struct {
	suite.Suite
	gateway  *recordingGateway
	billRepo *MockBillRepository
	notifier BillNotifier
	ctx      context.Context
}

func (suite *BillNotifierTestSuite) SetupTest() {
	suite.gateway = &recordingGateway{}
	suite.billRepo = &MockBillRepository{}
	suite.billRepo.Test(suite.T())
	suite.notifier = NewBillNotifier(suite.gateway, suite.billRepo)
	suite.ctx = context.Background()
}

func (suite *BillNotifierTestSuite) TearDownTest() {
	suite.billRepo.AssertExpectations(suite.T())
}

func TestBillNotifierTestSuite(t *testing.T) {
	suite.Run(t, new(BillNotifierTestSuite))
}

func (suite *BillNotifierTestSuite) notificationFixture() (*models.Customer, *models.Bill, *models.MeterReading) {
	customer := &models.Customer{
		ID:          uuid.New(),
		MeterNumber: "MTR-001",
		FullName:    "Asha Wanjiku",
		Phone:       "+254700000001",
	}
	bill := &models.Bill{
		ID:              uuid.New(),
		BillNumber:      "BILL-MTR-001-202403",
		MeterNumber:     "MTR-001",
		BillingPeriod:   "2024-03",
		PreviousReading: 100,
		CurrentReading:  150,
		Consumption:     50,
		WaterCharge:     5000,
		TotalAmount:     5000,
		DueDate:         time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
	}
	reading := &models.MeterReading{
		ID:          uuid.New(),
		MeterNumber: "MTR-001",
		RateApplied: 100,
	}
	return customer, bill, reading
}

func (suite *BillNotifierTestSuite) TestNotifyBillIssued_SendsAndMarks() {
	customer, bill, reading := suite.notificationFixture()

	suite.billRepo.On("MarkNotificationSent", suite.ctx, bill.ID, mock.AnythingOfType("time.Time")).Return(nil)

	suite.notifier.NotifyBillIssued(suite.ctx, customer, bill, reading)

	assert.Equal(suite.T(), "+254700000001", suite.gateway.phone)
	assert.Equal(suite.T(),
		"Dear Asha Wanjiku, your water bill for 2024-03 is ready. Previous reading: 100.0, Current reading: 150.0. Consumption: 50.0 units x 100.00 = 5000.00. Total due: 5000.00. Due date: 15 Apr 2024.",
		suite.gateway.message)
}

func (suite *BillNotifierTestSuite) TestNotifyBillIssued_GatewayFailureLeavesFlagUnset() {
	customer, bill, reading := suite.notificationFixture()
	suite.gateway.err = errors.New("provider unreachable")

	// MarkNotificationSent must not be called when the send fails.
	suite.notifier.NotifyBillIssued(suite.ctx, customer, bill, reading)

	suite.billRepo.AssertNotCalled(suite.T(), "MarkNotificationSent", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillNotifierTestSuite) TestNotifyBillIssued_MarkFailureIsSwallowed() {
	customer, bill, reading := suite.notificationFixture()

	suite.billRepo.On("MarkNotificationSent", suite.ctx, bill.ID, mock.AnythingOfType("time.Time")).
		Return(errors.New("database connection failed"))

	// Must not panic or propagate; the SMS already went out.
	suite.notifier.NotifyBillIssued(suite.ctx, customer, bill, reading)
	assert.NotEmpty(suite.T(), suite.gateway.message)
}

func TestFormatBillMessage_IncludesArrearsInTotal(t *testing.T) {
	customer := &models.Customer{FullName: "John Otieno"}
	bill := &models.Bill{
		BillingPeriod:   "2024-03",
		PreviousReading: 100,
		CurrentReading:  180,
		Consumption:     80,
		WaterCharge:     8000,
		Arrears:         3000,
		TotalAmount:     11000,
		DueDate:         time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
	}
	reading := &models.MeterReading{RateApplied: 100}

	message := FormatBillMessage(customer, bill, reading)
	assert.Contains(t, message, "Total due: 11000.00")
	assert.Contains(t, message, "Consumption: 80.0 units x 100.00 = 8000.00")
	assert.Contains(t, message, "Due date: 15 Apr 2024")
}
