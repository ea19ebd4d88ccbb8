package database

import (
	"context"
	"database/sql"
	"fmt"

	"civicreport/models"

	"github.com/apex/log"
)

// CreateUser inserts a new user with a pre-hashed password. New users always
// get the user role; promotion to admin/curator happens later.
func (d *Database) CreateUser(ctx context.Context, req models.RegisterRequest, passwordHash string) (*models.User, error) {
	var exists int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists > 0 {
		return nil, models.ErrEmailAlreadyRegistered
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, email, telephone, password, role_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.FirstName, req.LastName, req.Email, nullableString(req.Telephone), passwordHash, int64(models.RoleUser))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	log.Infof("User %d registered with email %s", userID, req.Email)

	return d.GetUser(ctx, userID)
}

// GetUser returns a user by id
func (d *Database) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	var telephone sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, telephone, role_id, points, created_at, updated_at
		FROM users
		WHERE id = ?`,
		userID).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&telephone,
		&user.Role,
		&user.Points,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.Telephone = telephone.String
	return &user, nil
}

// GetUserByEmail returns a user and their password hash for login
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var user models.User
	var telephone sql.NullString
	var passwordHash string

	err := d.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, telephone, password, role_id, points, created_at, updated_at
		FROM users
		WHERE email = ?`,
		email).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&telephone,
		&passwordHash,
		&user.Role,
		&user.Points,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", models.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to get user by email: %w", err)
	}
	user.Telephone = telephone.String
	return &user, passwordHash, nil
}

// ListUsers returns all users with their roles
func (d *Database) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, telephone, role_id, points, created_at, updated_at
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var telephone sql.NullString
		err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&telephone,
			&user.Role,
			&user.Points,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Telephone = telephone.String
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateUserRole changes a user's role
func (d *Database) UpdateUserRole(ctx context.Context, userID int64, role models.Role) error {
	result, err := d.db.ExecContext(ctx, "UPDATE users SET role_id = ? WHERE id = ?", int64(role), userID)
	if err != nil {
		return fmt.Errorf("failed to update role of user %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get update result: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	log.Infof("User %d role changed to %s", userID, role.Name())
	return nil
}

// DeleteUser removes a user account
func (d *Database) DeleteUser(ctx context.Context, userID int64) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get delete result: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetUserPoints persists a recomputed points value on the user row
func (d *Database) SetUserPoints(ctx context.Context, userID int64, points int) error {
	result, err := d.db.ExecContext(ctx, "UPDATE users SET points = ? WHERE id = ?", points, userID)
	if err != nil {
		return fmt.Errorf("failed to set points of user %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get update result: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// GetUserPoints returns the cached points value of a user
func (d *Database) GetUserPoints(ctx context.Context, userID int64) (int, error) {
	var points int
	err := d.db.QueryRowContext(ctx, "SELECT points FROM users WHERE id = ?", userID).Scan(&points)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, models.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get points of user %d: %w", userID, err)
	}
	return points, nil
}
