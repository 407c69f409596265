package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/yourorg/daysync/internal/config"
)

// Connect returns a MariaDB/MySQL connection for the configured database.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	return sql.Open("mysql", DSN(cfg))
}

// DSN builds the driver connection string.
func DSN(cfg config.DatabaseConfig) string {
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", cfg.User, cfg.Pass, host, port, cfg.Name)
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(db *sql.DB, skip bool) error {
	if skip {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA)")
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS search_history (
			id CHAR(36) PRIMARY KEY,
			origin_lat DOUBLE NOT NULL,
			origin_lon DOUBLE NOT NULL,
			destination_lat DOUBLE NOT NULL,
			destination_lon DOUBLE NOT NULL,
			outcome VARCHAR(32) NOT NULL,
			result_count INT NOT NULL DEFAULT 0,
			best_minutes INT NULL,
			itineraries JSON NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE INDEX idx_search_history_created ON search_history(created_at);
	`); err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") {
			// index already exists, nothing to do
		} else if strings.Contains(errMsg, "permission denied") {
			log.Printf("EnsureSchema: unable to create search_history index (permission denied): %v", err)
		} else {
			return err
		}
	}

	return nil
}
