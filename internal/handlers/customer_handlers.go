package handlers

import (
	"net/http"
	"strconv"

	"aquabill/internal/common"
	"aquabill/internal/models"
	"aquabill/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers handles HTTP requests for customer accounts
type CustomerHandlers struct {
	customerService services.CustomerService
}

// NewCustomerHandlers creates a new customer handlers instance
func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// CreateCustomer handles POST /customers
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		MeterNumber    string   `json:"meter_number"`
		FullName       string   `json:"full_name"`
		Phone          string   `json:"phone"`
		Address        *string  `json:"address"`
		Zone           string   `json:"zone"`
		RatePerUnit    float64  `json:"rate_per_unit"`
		InitialReading float64  `json:"initial_reading"`
	}

	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	customer := &models.Customer{
		MeterNumber: req.MeterNumber,
		FullName:    req.FullName,
		Phone:       req.Phone,
		Address:     req.Address,
		Zone:        req.Zone,
		RatePerUnit: req.RatePerUnit,
		LastReading: req.InitialReading,
	}

	if err := h.customerService.Onboard(ctx, customer); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer handles GET /customers/:meterNumber
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	meterNumber, err := common.ValidateMeterNumber(c.Param("meterNumber"))
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customer, err := h.customerService.GetByMeterNumber(ctx, meterNumber)
	if err != nil {
		if common.IsNotFound(err) {
			return common.SendNotFoundError(c, "customer")
		}
		return common.SendServerError(c, "Failed to retrieve customer")
	}

	return c.JSON(http.StatusOK, customer)
}

// ListCustomers handles GET /customers
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	filter := &models.CustomerSearchFilter{
		Query:  c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	}
	if zone := c.QueryParam("zone"); zone != "" {
		filter.Zone = &zone
	}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}

	customers, err := h.customerService.List(ctx, filter)
	if err != nil {
		return common.SendServerError(c, "Failed to list customers")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})
}

// UpdateCustomer handles PUT /customers/:meterNumber
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	meterNumber, err := common.ValidateMeterNumber(c.Param("meterNumber"))
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customer, err := h.customerService.GetByMeterNumber(ctx, meterNumber)
	if err != nil {
		if common.IsNotFound(err) {
			return common.SendNotFoundError(c, "customer")
		}
		return common.SendServerError(c, "Failed to retrieve customer")
	}

	var req struct {
		FullName    *string  `json:"full_name"`
		Phone       *string  `json:"phone"`
		Address     *string  `json:"address"`
		Zone        *string  `json:"zone"`
		RatePerUnit *float64 `json:"rate_per_unit"`
		Status      *string  `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.FullName != nil {
		customer.FullName = *req.FullName
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.Zone != nil {
		customer.Zone = *req.Zone
	}
	if req.RatePerUnit != nil {
		customer.RatePerUnit = *req.RatePerUnit
	}
	if req.Status != nil {
		customer.Status = *req.Status
	}

	if err := h.customerService.UpdateProfile(ctx, customer); err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, customer)
}
