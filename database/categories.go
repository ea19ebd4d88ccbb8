package database

import (
	"context"
	"fmt"

	"civicreport/models"
)

// ListCategories returns the seeded report categories
func (d *Database) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, category FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
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

// CategoriesExist reports whether every given category id exists
func (d *Database) CategoriesExist(ctx context.Context, categoryIDs []int64) (bool, error) {
	for _, id := range categoryIDs {
		var exists int
		err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE id = ?", id).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("failed to check category %d: %w", id, err)
		}
		if exists == 0 {
			return false, nil
		}
	}
	return true, nil
}
