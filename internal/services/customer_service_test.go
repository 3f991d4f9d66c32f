package services

import (
	"context"
	"testing"
	"time"

	"aquabill/internal/common"
	"aquabill/internal/models"
	"aquabill/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) WithTx(tx pgx.Tx) repositories.CustomerRepository {
	m.Called(tx)
	return m
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByMeterNumber(ctx context.Context, meterNumber string) (*models.Customer, error) {
	args := m.Called(ctx, meterNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByMeterNumberForUpdate(ctx context.Context, meterNumber string) (*models.Customer, error) {
	args := m.Called(ctx, meterNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) List(ctx context.Context, filter *models.CustomerSearchFilter) ([]*models.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ApplyReading(ctx context.Context, meterNumber string, lastReading float64, readingDate time.Time, consumption, totalAmount float64) error {
	args := m.Called(ctx, meterNumber, lastReading, readingDate, consumption, totalAmount)
	return args.Error(0)
}

func (m *MockCustomerRepository) ApplyPayment(ctx context.Context, meterNumber string, amount float64) error {
	args := m.Called(ctx, meterNumber, amount)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCustomer(ctx context.Context, meterNumber string) (*models.Customer, error) {
	args := m.Called(ctx, meterNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCacheService) SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error {
	args := m.Called(ctx, customer, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteCustomer(ctx context.Context, meterNumber string) error {
	args := m.Called(ctx, meterNumber)
	return args.Error(0)
}

func (m *MockCacheService) GetReport(ctx context.Context, name string, dest interface{}) (bool, error) {
	args := m.Called(ctx, name, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetReport(ctx context.Context, name string, report interface{}, ttl time.Duration) error {
	args := m.Called(ctx, name, report, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteReport(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type CustomerServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockCustomerRepository
	mockCache *MockCacheService
	service   CustomerService
	ctx       context.Context
}

func (suite *CustomerServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockCustomerRepository{}
	suite.mockCache = &MockCacheService{}
	suite.mockRepo.Test(suite.T())
	suite.mockCache.Test(suite.T())
	suite.service = NewCustomerService(suite.mockRepo, suite.mockCache)
	suite.ctx = context.Background()
}

func (suite *CustomerServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestCustomerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CustomerServiceTestSuite))
}

func (suite *CustomerServiceTestSuite) TestOnboard_Success() {
	customer := &models.Customer{
		MeterNumber: "MTR-001",
		FullName:    "Asha Wanjiku",
		Phone:       "+254700000001",
		LastReading: 100,
	}

	suite.mockRepo.On("GetByMeterNumber", suite.ctx, "MTR-001").Return((*models.Customer)(nil), pgx.ErrNoRows)
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Customer")).Return(nil).Run(func(args mock.Arguments) {
		created := args.Get(1).(*models.Customer)
		assert.NotEqual(suite.T(), uuid.Nil, created.ID)
		assert.Equal(suite.T(), "active", created.Status)
		assert.NotNil(suite.T(), created.LastReadingDate)
	})

	err := suite.service.Onboard(suite.ctx, customer)
	assert.NoError(suite.T(), err)
}

func (suite *CustomerServiceTestSuite) TestOnboard_MissingName() {
	customer := &models.Customer{
		MeterNumber: "MTR-001",
		Phone:       "+254700000001",
	}

	err := suite.service.Onboard(suite.ctx, customer)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "full name is required")
}

func (suite *CustomerServiceTestSuite) TestOnboard_InvalidPhone() {
	customer := &models.Customer{
		MeterNumber: "MTR-001",
		FullName:    "Asha Wanjiku",
		Phone:       "not-a-phone",
	}

	err := suite.service.Onboard(suite.ctx, customer)
	assert.Error(suite.T(), err)
}

func (suite *CustomerServiceTestSuite) TestOnboard_NegativeInitialReading() {
	customer := &models.Customer{
		MeterNumber: "MTR-001",
		FullName:    "Asha Wanjiku",
		Phone:       "+254700000001",
		LastReading: -5,
	}

	err := suite.service.Onboard(suite.ctx, customer)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "initial reading cannot be negative")
}

func (suite *CustomerServiceTestSuite) TestOnboard_DuplicateMeterNumber() {
	customer := &models.Customer{
		MeterNumber: "MTR-001",
		FullName:    "Asha Wanjiku",
		Phone:       "+254700000001",
	}
	existing := &models.Customer{ID: uuid.New(), MeterNumber: "MTR-001"}

	suite.mockRepo.On("GetByMeterNumber", suite.ctx, "MTR-001").Return(existing, nil)

	err := suite.service.Onboard(suite.ctx, customer)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "already registered")
}

func (suite *CustomerServiceTestSuite) TestGetByMeterNumber_CacheHit() {
	cached := &models.Customer{ID: uuid.New(), MeterNumber: "MTR-001", FullName: "Asha Wanjiku"}

	suite.mockCache.On("GetCustomer", suite.ctx, "MTR-001").Return(cached, nil)

	customer, err := suite.service.GetByMeterNumber(suite.ctx, "MTR-001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, customer)

	suite.mockRepo.AssertNotCalled(suite.T(), "GetByMeterNumber", mock.Anything, mock.Anything)
}

func (suite *CustomerServiceTestSuite) TestGetByMeterNumber_CacheMissFallsThrough() {
	customer := &models.Customer{ID: uuid.New(), MeterNumber: "MTR-001", FullName: "Asha Wanjiku"}

	suite.mockCache.On("GetCustomer", suite.ctx, "MTR-001").Return((*models.Customer)(nil), nil)
	suite.mockRepo.On("GetByMeterNumber", suite.ctx, "MTR-001").Return(customer, nil)
	suite.mockCache.On("SetCustomer", suite.ctx, customer, 5*time.Minute).Return(nil)

	result, err := suite.service.GetByMeterNumber(suite.ctx, "MTR-001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), customer, result)
}

func (suite *CustomerServiceTestSuite) TestGetByMeterNumber_NotFound() {
	suite.mockCache.On("GetCustomer", suite.ctx, "MTR-404").Return((*models.Customer)(nil), nil)
	suite.mockRepo.On("GetByMeterNumber", suite.ctx, "MTR-404").Return((*models.Customer)(nil), pgx.ErrNoRows)

	customer, err := suite.service.GetByMeterNumber(suite.ctx, "MTR-404")
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrCustomerNotFound)
	assert.Nil(suite.T(), customer)
}

func (suite *CustomerServiceTestSuite) TestUpdateProfile_InvalidatesCache() {
	customer := &models.Customer{
		ID:          uuid.New(),
		MeterNumber: "MTR-001",
		FullName:    "Asha W. Kamau",
		Phone:       "+254700000002",
	}

	suite.mockRepo.On("Update", suite.ctx, customer).Return(nil)
	suite.mockCache.On("DeleteCustomer", suite.ctx, "MTR-001").Return(nil)

	err := suite.service.UpdateProfile(suite.ctx, customer)
	assert.NoError(suite.T(), err)
}

func (suite *CustomerServiceTestSuite) TestList_AppliesPaginationDefaults() {
	expected := []*models.Customer{{ID: uuid.New(), MeterNumber: "MTR-001"}}

	suite.mockRepo.On("List", suite.ctx, mock.MatchedBy(func(filter *models.CustomerSearchFilter) bool {
		return filter.Limit == 50 && filter.Offset == 0
	})).Return(expected, nil)

	result, err := suite.service.List(suite.ctx, &models.CustomerSearchFilter{Limit: 0, Offset: -1})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, result)
}
