package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"civicreport/models"

	"github.com/shopspring/decimal"
)

// OverviewMetrics are the headline dashboard numbers
type OverviewMetrics struct {
	TotalReports      int            `json:"total_reports"`
	TotalUsers        int            `json:"total_users"`
	TotalCategories   int            `json:"total_categories"`
	ReportsByStatus   map[string]int `json:"reports_by_status"`
	ReportsLast30Days int            `json:"reports_last_30_days"`
	ResolvedReports   int            `json:"resolved_reports"`
	PendingReports    int            `json:"pending_reports"`
	ResolutionRate    float64        `json:"resolution_rate"`
}

// ResolutionMetrics describe how fast reports get resolved
type ResolutionMetrics struct {
	AverageResolutionDays float64              `json:"average_resolution_days"`
	ResolvedByMonth       []MonthlyReportCount `json:"resolved_by_month"`
}

// MonthlyReportCount counts resolved reports in one month
type MonthlyReportCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CategoryMetric counts reports per category
type CategoryMetric struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// FinancialMetrics aggregate the estimated costs recorded on report details
type FinancialMetrics struct {
	TotalEstimatedCost decimal.Decimal            `json:"total_estimated_cost"`
	CostByStatus       map[string]decimal.Decimal `json:"cost_by_status"`
	CostByPriority     map[string]decimal.Decimal `json:"cost_by_priority"`
}

// GetOverviewMetrics computes the headline dashboard numbers
func (d *Database) GetOverviewMetrics(ctx context.Context) (*OverviewMetrics, error) {
	m := &OverviewMetrics{ReportsByStatus: make(map[string]int)}

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&m.TotalReports); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&m.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&m.TotalCategories); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT s.status, COUNT(r.id)
		FROM reports r
		INNER JOIN statuses s ON r.status_id = s.id
		GROUP BY s.status`)
	if err != nil {
		return nil, fmt.Errorf("failed to group reports by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status group: %w", err)
		}
		m.ReportsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status groups: %w", err)
	}

	since := time.Now().AddDate(0, 0, -30)
	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reports WHERE created_at >= ?", since).Scan(&m.ReportsLast30Days)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent reports: %w", err)
	}

	m.ResolvedReports = m.ReportsByStatus[models.StatusResolved.Label()]
	m.PendingReports = m.TotalReports - m.ResolvedReports
	if m.TotalReports > 0 {
		m.ResolutionRate = float64(m.ResolvedReports) / float64(m.TotalReports) * 100
	}

	return m, nil
}

// GetResolutionMetrics computes the average days to resolution and a
// per-month breakdown of resolved reports over the last 6 months. The
// report's updated_at is the resolution-time signal.
func (d *Database) GetResolutionMetrics(ctx context.Context) (*ResolutionMetrics, error) {
	m := &ResolutionMetrics{}

	var avgDays sql.NullFloat64
	err := d.db.QueryRowContext(ctx, `
		SELECT AVG(DATEDIFF(updated_at, created_at))
		FROM reports
		WHERE status_id = ?`,
		int64(models.StatusResolved)).Scan(&avgDays)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average resolution time: %w", err)
	}
	m.AverageResolutionDays = avgDays.Float64

	since := time.Now().AddDate(0, -6, 0)
	rows, err := d.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(updated_at, '%Y-%m') AS month, COUNT(*)
		FROM reports
		WHERE status_id = ? AND updated_at >= ?
		GROUP BY month
		ORDER BY month`,
		int64(models.StatusResolved), since)
	if err != nil {
		return nil, fmt.Errorf("failed to group resolved reports by month: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mc MonthlyReportCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly count: %w", err)
		}
		m.ResolvedByMonth = append(m.ResolvedByMonth, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly counts: %w", err)
	}

	return m, nil
}

// GetCategoryMetrics counts reports per category
func (d *Database) GetCategoryMetrics(ctx context.Context) ([]CategoryMetric, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.category, COUNT(cr.report_id)
		FROM categories c
		LEFT JOIN category_report cr ON c.id = cr.category_id
		GROUP BY c.id, c.category
		ORDER BY COUNT(cr.report_id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to group reports by category: %w", err)
	}
	defer rows.Close()

	var metrics []CategoryMetric
	for rows.Next() {
		var m CategoryMetric
		if err := rows.Scan(&m.Category, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category metrics: %w", err)
	}
	return metrics, nil
}

// GetFinancialMetrics aggregates estimated costs from report details,
// grouped by report status and by detail priority. Costs are summed with
// decimal arithmetic to avoid float drift on money values.
func (d *Database) GetFinancialMetrics(ctx context.Context) (*FinancialMetrics, error) {
	m := &FinancialMetrics{
		TotalEstimatedCost: decimal.Zero,
		CostByStatus:       make(map[string]decimal.Decimal),
		CostByPriority:     make(map[string]decimal.Decimal),
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT s.status, rd.priority, rd.estimated_cost
		FROM report_details rd
		INNER JOIN reports r ON rd.report_id = r.id
		INNER JOIN statuses s ON r.status_id = s.id
		WHERE rd.estimated_cost IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimated costs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority, cost string
		if err := rows.Scan(&status, &priority, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan estimated cost: %w", err)
		}
		dec, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("failed to parse estimated cost %q: %w", cost, err)
		}
		m.TotalEstimatedCost = m.TotalEstimatedCost.Add(dec)
		m.CostByStatus[status] = m.CostByStatus[status].Add(dec)
		m.CostByPriority[priority] = m.CostByPriority[priority].Add(dec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimated costs: %w", err)
	}

	return m, nil
}
