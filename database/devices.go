package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"civicreport/models"

	"github.com/apex/log"
)

// RegisterDeviceToken creates or refreshes a device token for a user. The
// operation is idempotent per user+token pair: an existing row gets its
// platform and last_used_at refreshed and is reactivated.
func (d *Database) RegisterDeviceToken(ctx context.Context, userID int64, token, platform string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, is_active, last_used_at)
		VALUES (?, ?, ?, TRUE, NOW())
		ON DUPLICATE KEY UPDATE
			platform = VALUES(platform),
			is_active = TRUE,
			last_used_at = NOW()`,
		userID, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	log.Infof("Device token registered for user %d (%s)", userID, platform)
	return nil
}

// DeactivateDeviceToken soft-deactivates a token so it stops receiving
// notifications. Unknown tokens are tolerated.
func (d *Database) DeactivateDeviceToken(ctx context.Context, userID int64, token string) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE device_tokens SET is_active = FALSE WHERE user_id = ? AND token = ?",
		userID, token)
	if err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get update result: %w", err)
	}
	if rows == 0 {
		log.Warnf("Attempt to deactivate unknown device token for user %d", userID)
	}
	return nil
}

// DeleteDeviceToken hard-deletes a token registration
func (d *Database) DeleteDeviceToken(ctx context.Context, userID int64, token string) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM device_tokens WHERE user_id = ? AND token = ?",
		userID, token)
	if err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}

// ListDeviceTokens returns all token registrations of a user
func (d *Database) ListDeviceTokens(ctx context.Context, userID int64) ([]models.DeviceToken, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, token, platform, is_active, last_used_at, created_at, updated_at
		FROM device_tokens
		WHERE user_id = ?
		ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tokens []models.DeviceToken
	for rows.Next() {
		var t models.DeviceToken
		err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.IsActive, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}
	return tokens, nil
}

// ActiveDeviceTokens returns the active push tokens of a single user
func (d *Database) ActiveDeviceTokens(ctx context.Context, userID int64) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT token FROM device_tokens WHERE user_id = ? AND is_active = TRUE",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active device tokens for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanTokens(rows)
}

// ActiveDeviceTokensForRoles returns the active push tokens of every user
// holding one of the given roles
func (d *Database) ActiveDeviceTokensForRoles(ctx context.Context, roles ...models.Role) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(roles))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(roles))
	for _, role := range roles {
		args = append(args, int64(role))
	}

	query := fmt.Sprintf(`
		SELECT dt.token
		FROM device_tokens dt
		INNER JOIN users u ON dt.user_id = u.id
		WHERE u.role_id IN (%s) AND dt.is_active = TRUE`,
		placeholders)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens by role: %w", err)
	}
	defer rows.Close()
	return scanTokens(rows)
}

func scanTokens(rows *sql.Rows) ([]string, error) {
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}
	return tokens, nil
}
