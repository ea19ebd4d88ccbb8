package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"civicreport/models"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

func parseDecimal(s string) (decimal.NullDecimal, error) {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: dec, Valid: true}, nil
}

// CreateReportDetail inserts the one-to-one detail record of a report. A
// report can have at most one; a second creation attempt is an error.
func (d *Database) CreateReportDetail(ctx context.Context, reportID int64, req models.CreateReportDetailRequest) (*models.ReportDetail, error) {
	var exists int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM report_details WHERE report_id = ?",
		reportID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check report detail existence: %w", err)
	}
	if exists > 0 {
		return nil, models.ErrDetailAlreadyExists
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	var cost any
	if req.EstimatedCost.Valid {
		cost = req.EstimatedCost.Decimal.String()
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO report_details (report_id, technical_description, priority, resolution_notes, estimated_cost)
		VALUES (?, ?, ?, ?, ?)`,
		reportID, nullableString(req.TechnicalDescription), priority, nullableString(req.ResolutionNotes), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report detail: %w", err)
	}

	detailID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get report detail id: %w", err)
	}

	log.Infof("Detail %d created for report %d", detailID, reportID)

	return d.GetReportDetail(ctx, reportID)
}

// GetReportDetail returns the detail record of a report
func (d *Database) GetReportDetail(ctx context.Context, reportID int64) (*models.ReportDetail, error) {
	var detail models.ReportDetail
	var description, notes sql.NullString
	var cost sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT id, report_id, technical_description, priority, resolution_notes, estimated_cost, created_at, updated_at
		FROM report_details
		WHERE report_id = ?`,
		reportID).Scan(
		&detail.ID,
		&detail.ReportID,
		&description,
		&detail.Priority,
		&notes,
		&cost,
		&detail.CreatedAt,
		&detail.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrDetailNotFound
		}
		return nil, fmt.Errorf("failed to get detail of report %d: %w", reportID, err)
	}
	detail.TechnicalDescription = description.String
	detail.ResolutionNotes = notes.String
	if cost.Valid {
		dec, err := parseDecimal(cost.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse estimated cost of report %d: %w", reportID, err)
		}
		detail.EstimatedCost = dec
	}
	return &detail, nil
}

// UpdateReportDetail applies partial updates to a report's detail record
func (d *Database) UpdateReportDetail(ctx context.Context, reportID int64, req models.UpdateReportDetailRequest) (*models.ReportDetail, error) {
	updates := []string{}
	args := []any{}

	if req.TechnicalDescription != nil {
		updates = append(updates, "technical_description = ?")
		args = append(args, *req.TechnicalDescription)
	}
	if req.Priority != nil {
		updates = append(updates, "priority = ?")
		args = append(args, *req.Priority)
	}
	if req.ResolutionNotes != nil {
		updates = append(updates, "resolution_notes = ?")
		args = append(args, *req.ResolutionNotes)
	}
	if req.EstimatedCost != nil {
		updates = append(updates, "estimated_cost = ?")
		if req.EstimatedCost.Valid {
			args = append(args, req.EstimatedCost.Decimal.String())
		} else {
			args = append(args, nil)
		}
	}

	if len(updates) > 0 {
		args = append(args, reportID)
		query := fmt.Sprintf("UPDATE report_details SET %s WHERE report_id = ?", strings.Join(updates, ", "))
		result, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update detail of report %d: %w", reportID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get update result: %w", err)
		}
		if rows == 0 {
			// Distinguish a missing row from an update to identical values
			var exists int
			if err := d.db.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM report_details WHERE report_id = ?",
				reportID).Scan(&exists); err != nil {
				return nil, fmt.Errorf("failed to check report detail existence: %w", err)
			}
			if exists == 0 {
				return nil, models.ErrDetailNotFound
			}
		}
	}

	return d.GetReportDetail(ctx, reportID)
}
