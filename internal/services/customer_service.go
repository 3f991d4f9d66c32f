package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aquabill/internal/caching"
	"aquabill/internal/common"
	"aquabill/internal/models"
	"aquabill/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CustomerService handles account onboarding and profile management. Billing
// state on the customer row is owned by the billing engine and is not
// writable here.
type CustomerService interface {
	Onboard(ctx context.Context, customer *models.Customer) error
	GetByMeterNumber(ctx context.Context, meterNumber string) (*models.Customer, error)
	List(ctx context.Context, filter *models.CustomerSearchFilter) ([]*models.Customer, error)
	UpdateProfile(ctx context.Context, customer *models.Customer) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	cacheSvc     caching.CacheService
}

func NewCustomerService(customerRepo repositories.CustomerRepository, cacheSvc caching.CacheService) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		cacheSvc:     cacheSvc,
	}
}

// Onboard registers a new connection. The initial meter reading recorded here
// becomes the baseline for the first billed consumption interval.
func (s *customerService) Onboard(ctx context.Context, customer *models.Customer) error {
	if customer.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	meterNumber, err := common.ValidateMeterNumber(customer.MeterNumber)
	if err != nil {
		return err
	}
	customer.MeterNumber = meterNumber

	phone, err := common.ValidatePhone(customer.Phone)
	if err != nil {
		return err
	}
	customer.Phone = phone

	if customer.LastReading < 0 {
		return fmt.Errorf("initial reading cannot be negative")
	}
	if customer.RatePerUnit < 0 {
		return fmt.Errorf("rate per unit cannot be negative")
	}

	if existing, err := s.customerRepo.GetByMeterNumber(ctx, meterNumber); err == nil && existing != nil {
		return fmt.Errorf("meter number %s is already registered", meterNumber)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return common.SecureErrorMessage("check meter number", err)
	}

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if customer.Status == "" {
		customer.Status = "active"
	}
	if customer.LastReadingDate == nil {
		now := time.Now()
		customer.LastReadingDate = &now
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return common.SecureErrorMessage("create customer", err)
	}

	return nil
}

func (s *customerService) GetByMeterNumber(ctx context.Context, meterNumber string) (*models.Customer, error) {
	if cached, err := s.cacheSvc.GetCustomer(ctx, meterNumber); err == nil && cached != nil {
		return cached, nil
	}

	customer, err := s.customerRepo.GetByMeterNumber(ctx, meterNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCustomerNotFound
		}
		return nil, common.SecureErrorMessage("get customer", err)
	}

	if err := s.cacheSvc.SetCustomer(ctx, customer, 5*time.Minute); err != nil {
		// cache miss on the next read, nothing more
	}

	return customer, nil
}

func (s *customerService) List(ctx context.Context, filter *models.CustomerSearchFilter) ([]*models.Customer, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return s.customerRepo.List(ctx, filter)
}

func (s *customerService) UpdateProfile(ctx context.Context, customer *models.Customer) error {
	if customer.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	phone, err := common.ValidatePhone(customer.Phone)
	if err != nil {
		return err
	}
	customer.Phone = phone

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return common.SecureErrorMessage("update customer", err)
	}

	if err := s.cacheSvc.DeleteCustomer(ctx, customer.MeterNumber); err != nil {
		// stale entry expires on its own TTL
	}

	return nil
}
