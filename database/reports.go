package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"civicreport/models"

	"github.com/apex/log"
)

// CreateReport inserts a new report with its category links in one
// transaction. The report always starts as pendente.
func (d *Database) CreateReport(ctx context.Context, userID int64, location, photo, comment string, categoryIDs []int64) (*models.Report, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reports (location, photo, comment, user_id, status_id)
		VALUES (?, ?, ?, ?, ?)`,
		location, nullableString(photo), nullableString(comment), userID, int64(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	reportID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get report id: %w", err)
	}

	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO category_report (category_id, report_id) VALUES (?, ?)",
			categoryID, reportID)
		if err != nil {
			return nil, fmt.Errorf("failed to attach category %d: %w", categoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infof("Report %d created by user %d with %d categories", reportID, userID, len(categoryIDs))

	return d.GetReport(ctx, reportID)
}

// GetReport returns a report with its categories loaded
func (d *Database) GetReport(ctx context.Context, reportID int64) (*models.Report, error) {
	var report models.Report
	var photo, comment sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at
		FROM reports
		WHERE id = ?`,
		reportID).Scan(
		&report.ID,
		&report.Location,
		&photo,
		&comment,
		&report.UserID,
		&report.Status,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report %d: %w", reportID, err)
	}
	report.Photo = photo.String
	report.Comment = comment.String

	categories, err := d.getReportCategories(ctx, reportID)
	if err != nil {
		return nil, err
	}
	report.Categories = categories

	return &report, nil
}

func (d *Database) getReportCategories(ctx context.Context, reportID int64) ([]models.Category, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.id, c.category
		FROM categories c
		INNER JOIN category_report cr ON c.id = cr.category_id
		WHERE cr.report_id = ?
		ORDER BY c.id`,
		reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories for report %d: %w", reportID, err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// ListReports returns reports ordered newest first, paginated
func (d *Database) ListReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return d.listReports(ctx, `
		SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset)
}

// ListReportsByUser returns all reports owned by a user, newest first
func (d *Database) ListReportsByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	return d.listReports(ctx, `
		SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at
		FROM reports
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID)
}

func (d *Database) listReports(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		var photo, comment sql.NullString
		err := rows.Scan(
			&report.ID,
			&report.Location,
			&photo,
			&comment,
			&report.UserID,
			&report.Status,
			&report.CreatedAt,
			&report.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report.Photo = photo.String
		report.Comment = comment.String
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	for i := range reports {
		categories, err := d.getReportCategories(ctx, reports[i].ID)
		if err != nil {
			return nil, err
		}
		reports[i].Categories = categories
	}

	return reports, nil
}

// UpdateReport updates the mutable fields of a report. Category links are
// replaced when categoryIDs is non-nil.
func (d *Database) UpdateReport(ctx context.Context, reportID int64, location, comment *string, photo string, categoryIDs []int64) error {
	updates := []string{}
	args := []any{}

	if location != nil {
		updates = append(updates, "location = ?")
		args = append(args, *location)
	}
	if comment != nil {
		updates = append(updates, "comment = ?")
		args = append(args, *comment)
	}
	if photo != "" {
		updates = append(updates, "photo = ?")
		args = append(args, photo)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(updates) > 0 {
		args = append(args, reportID)
		query := fmt.Sprintf("UPDATE reports SET %s WHERE id = ?", strings.Join(updates, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update report %d: %w", reportID, err)
		}
	}

	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM category_report WHERE report_id = ?", reportID); err != nil {
			return fmt.Errorf("failed to clear categories for report %d: %w", reportID, err)
		}
		for _, categoryID := range categoryIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO category_report (category_id, report_id) VALUES (?, ?)",
				categoryID, reportID)
			if err != nil {
				return fmt.Errorf("failed to attach category %d: %w", categoryID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteReport removes a report; category links and details cascade
func (d *Database) DeleteReport(ctx context.Context, reportID int64) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report %d: %w", reportID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get delete result: %w", err)
	}
	if rows == 0 {
		return models.ErrReportNotFound
	}
	return nil
}

// ApplyStatusTransition moves a report to the requested status. The current
// status is re-read under a row lock inside the transaction, so concurrent
// callers always compare ranks against the latest committed value. Returns
// the updated report and the status it moved from.
func (d *Database) ApplyStatusTransition(ctx context.Context, reportID int64, requested models.Status) (*models.Report, models.Status, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var report models.Report
	var photo, comment sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at
		FROM reports
		WHERE id = ?
		FOR UPDATE`,
		reportID).Scan(
		&report.ID,
		&report.Location,
		&photo,
		&comment,
		&report.UserID,
		&report.Status,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, models.ErrReportNotFound
		}
		return nil, 0, fmt.Errorf("failed to lock report %d: %w", reportID, err)
	}
	report.Photo = photo.String
	report.Comment = comment.String

	current := report.Status
	if requested.Rank() <= current.Rank() {
		return nil, 0, &models.ProgressionError{Current: current, Attempted: requested}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE reports SET status_id = ?, updated_at = NOW() WHERE id = ?",
		int64(requested), reportID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to update status of report %d: %w", reportID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infof("Report %d moved from %q to %q", reportID, current.Label(), requested.Label())

	report.Status = requested
	report.UpdatedAt = time.Now()
	return &report, current, nil
}

// CountReportsByStatus groups a user's reports by their current status
func (d *Database) CountReportsByStatus(ctx context.Context, userID int64) (map[models.Status]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT status_id, COUNT(*)
		FROM reports
		WHERE user_id = ?
		GROUP BY status_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports for user %d: %w", userID, err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
