package reporting

import (
	"context"
	"log"
	"time"

	"aquabill/internal/caching"
	"aquabill/internal/repositories"
)

// Service handles read-only aggregation over the billing ledger for
// dashboards. It never mutates billing state.
type Service struct {
	db           repositories.DB
	cacheService caching.CacheService
}

// DashboardReport represents the utility-wide billing snapshot
type DashboardReport struct {
	CustomerCount      int       `json:"customer_count"`
	TotalBilled        float64   `json:"total_billed"`
	TotalCollected     float64   `json:"total_collected"`
	TotalOutstanding   float64   `json:"total_outstanding"`
	TotalConsumption   float64   `json:"total_consumption"`
	PendingBills       int       `json:"pending_bills"`
	PartiallyPaidBills int       `json:"partially_paid_bills"`
	PaidBills          int       `json:"paid_bills"`
	OverdueBills       int       `json:"overdue_bills"`
	LastUpdated        time.Time `json:"last_updated"`
}

// ZoneReport represents per-zone consumption and arrears
type ZoneReport struct {
	Zone             string  `json:"zone"`
	CustomerCount    int     `json:"customer_count"`
	TotalConsumption float64 `json:"total_consumption"`
	TotalArrears     float64 `json:"total_arrears"`
}

const (
	dashboardCacheKey = "dashboard"
	zonesCacheKey     = "zones"
	reportCacheTTL    = 5 * time.Minute
)

func NewService(db repositories.DB, cacheService caching.CacheService) *Service {
	return &Service{
		db:           db,
		cacheService: cacheService,
	}
}

// Dashboard returns the cached utility-wide snapshot, recomputing on miss.
func (s *Service) Dashboard(ctx context.Context) (*DashboardReport, error) {
	var cached DashboardReport
	if hit, err := s.cacheService.GetReport(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	return s.RefreshDashboard(ctx)
}

// RefreshDashboard recomputes the dashboard aggregates and refreshes the cache.
func (s *Service) RefreshDashboard(ctx context.Context) (*DashboardReport, error) {
	report := &DashboardReport{LastUpdated: time.Now()}

	customerQuery := `
		SELECT COUNT(*), COALESCE(SUM(total_consumed), 0), COALESCE(SUM(total_paid), 0)
		FROM customers
	`
	if err := s.db.QueryRow(ctx, customerQuery).Scan(&report.CustomerCount, &report.TotalConsumption, &report.TotalCollected); err != nil {
		return nil, err
	}

	billQuery := `
		SELECT
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(balance), 0),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'partially_paid'),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'overdue')
		FROM bills
	`
	if err := s.db.QueryRow(ctx, billQuery).Scan(&report.TotalBilled, &report.TotalOutstanding, &report.PendingBills, &report.PartiallyPaidBills, &report.PaidBills, &report.OverdueBills); err != nil {
		return nil, err
	}

	if err := s.cacheService.SetReport(ctx, dashboardCacheKey, report, reportCacheTTL); err != nil {
		log.Printf("Failed to cache dashboard report: %v", err)
	}

	return report, nil
}

// Zones returns per-zone consumption and arrears, cached.
func (s *Service) Zones(ctx context.Context) ([]ZoneReport, error) {
	var cached []ZoneReport
	if hit, err := s.cacheService.GetReport(ctx, zonesCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	query := `
		SELECT zone, COUNT(*), COALESCE(SUM(total_consumed), 0), COALESCE(SUM(GREATEST(-balance, 0)), 0)
		FROM customers
		GROUP BY zone
		ORDER BY zone ASC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []ZoneReport
	for rows.Next() {
		var report ZoneReport
		if err := rows.Scan(&report.Zone, &report.CustomerCount, &report.TotalConsumption, &report.TotalArrears); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.cacheService.SetReport(ctx, zonesCacheKey, reports, reportCacheTTL); err != nil {
		log.Printf("Failed to cache zone report: %v", err)
	}

	return reports, nil
}
