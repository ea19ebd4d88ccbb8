package database

import (
	"context"
	"fmt"

	"civicreport/models"

	"github.com/apex/log"
)

var tableDefinitions = []struct {
	name  string
	query string
}{
	{
		name: "statuses",
		query: `
			CREATE TABLE IF NOT EXISTS statuses (
				id BIGINT NOT NULL,
				status VARCHAR(64) NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "roles",
		query: `
			CREATE TABLE IF NOT EXISTS roles (
				id BIGINT NOT NULL,
				role VARCHAR(32) NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "users",
		query: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT NOT NULL AUTO_INCREMENT,
				first_name VARCHAR(255) NOT NULL,
				last_name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				telephone VARCHAR(32),
				password VARCHAR(255) NOT NULL,
				role_id BIGINT NOT NULL DEFAULT 1,
				points INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id),
				INDEX role_id_index (role_id),
				FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE RESTRICT
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "categories",
		query: `
			CREATE TABLE IF NOT EXISTS categories (
				id BIGINT NOT NULL AUTO_INCREMENT,
				category VARCHAR(255) NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "reports",
		query: `
			CREATE TABLE IF NOT EXISTS reports (
				id BIGINT NOT NULL AUTO_INCREMENT,
				location VARCHAR(255) NOT NULL,
				photo VARCHAR(255),
				comment TEXT,
				user_id BIGINT NOT NULL,
				status_id BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id),
				INDEX user_id_index (user_id),
				INDEX status_id_index (status_id),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT,
				FOREIGN KEY (status_id) REFERENCES statuses(id) ON DELETE RESTRICT
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "category_report",
		query: `
			CREATE TABLE IF NOT EXISTS category_report (
				category_id BIGINT NOT NULL,
				report_id BIGINT NOT NULL,
				PRIMARY KEY (category_id, report_id),
				INDEX report_id_index (report_id),
				FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE,
				FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "report_details",
		query: `
			CREATE TABLE IF NOT EXISTS report_details (
				id BIGINT NOT NULL AUTO_INCREMENT,
				report_id BIGINT NOT NULL UNIQUE,
				technical_description TEXT,
				priority ENUM('baixa', 'media', 'alta') NOT NULL DEFAULT 'media',
				resolution_notes TEXT,
				estimated_cost DECIMAL(10,2),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id),
				FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
	{
		name: "device_tokens",
		query: `
			CREATE TABLE IF NOT EXISTS device_tokens (
				id BIGINT NOT NULL AUTO_INCREMENT,
				user_id BIGINT NOT NULL,
				token VARCHAR(255) NOT NULL,
				platform VARCHAR(16) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				last_used_at TIMESTAMP NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (id),
				UNIQUE INDEX user_token_unique (user_id, token),
				INDEX user_id_index (user_id),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
		`,
	},
}

// EnsureSchema creates all required tables if they don't exist
func (d *Database) EnsureSchema(ctx context.Context) error {
	for _, table := range tableDefinitions {
		if _, err := d.db.ExecContext(ctx, table.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	log.Info("All tables ensured")
	return nil
}

var seedCategories = []string{
	"Danos na via",
	"Iluminação pública",
	"Problemas de acessibilidade",
	"Árvores caídas",
	"Lixo na via",
	"Parquímetro avariado",
	"Sinalização em falta/ incorreta",
}

// SeedReferenceData inserts the fixed status, role and category rows if the
// tables are empty. Statuses and roles are a closed set; their ids must match
// the enumerations in the models package.
func (d *Database) SeedReferenceData(ctx context.Context) error {
	for _, s := range models.AllStatuses() {
		_, err := d.db.ExecContext(ctx,
			"INSERT IGNORE INTO statuses (id, status) VALUES (?, ?)",
			int64(s), s.Label())
		if err != nil {
			return fmt.Errorf("failed to seed status %q: %w", s.Label(), err)
		}
	}

	for _, r := range []models.Role{models.RoleUser, models.RoleAdmin, models.RoleCurator} {
		_, err := d.db.ExecContext(ctx,
			"INSERT IGNORE INTO roles (id, role) VALUES (?, ?)",
			int64(r), r.Name())
		if err != nil {
			return fmt.Errorf("failed to seed role %q: %w", r.Name(), err)
		}
	}

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count == 0 {
		for _, name := range seedCategories {
			if _, err := d.db.ExecContext(ctx, "INSERT INTO categories (category) VALUES (?)", name); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", name, err)
			}
		}
		log.Infof("Seeded %d categories", len(seedCategories))
	}

	log.Info("Reference data seeded")
	return nil
}
