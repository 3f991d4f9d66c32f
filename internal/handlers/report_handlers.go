package handlers

import (
	"net/http"

	"aquabill/internal/common"
	"aquabill/internal/reporting"

	"github.com/labstack/echo/v4"
)

// ReportHandlers exposes the read-only dashboard aggregates
type ReportHandlers struct {
	reportingSvc *reporting.Service
}

// NewReportHandlers creates a new report handlers instance
func NewReportHandlers(reportingSvc *reporting.Service) *ReportHandlers {
	return &ReportHandlers{reportingSvc: reportingSvc}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportHandlers) Dashboard(c echo.Context) error {
	report, err := h.reportingSvc.Dashboard(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to compute dashboard report")
	}
	return c.JSON(http.StatusOK, report)
}

// Zones handles GET /reports/zones
func (h *ReportHandlers) Zones(c echo.Context) error {
	reports, err := h.reportingSvc.Zones(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to compute zone report")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"zones": reports,
	})
}
