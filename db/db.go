package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"optovik-store/logger"
)

// Open opens and pings a Postgres connection through the pgx stdlib driver
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}

	conn, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Infof("✓ Database connection established successfully")
	return conn, nil
}

// EnsureSchema creates the tables this service owns when they are missing
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for i, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	logger.Log.Infof("✓ Database schema is up to date")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS site_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id           UUID PRIMARY KEY,
		article      TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		retail_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		colors       JSONB NOT NULL DEFAULT '[]',
		sizes        JSONB NOT NULL DEFAULT '[]',
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id         UUID PRIMARY KEY,
		lines      JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGSERIAL PRIMARY KEY,
		number           TEXT NOT NULL UNIQUE,
		status           TEXT NOT NULL,
		order_type       TEXT NOT NULL,
		customer_name    TEXT NOT NULL,
		customer_phone   TEXT NOT NULL,
		customer_email   TEXT,
		delivery_method  TEXT NOT NULL,
		delivery_address TEXT,
		payment_method   TEXT NOT NULL,
		payment_id       TEXT,
		retail_total     NUMERIC(12,2) NOT NULL,
		total            NUMERIC(12,2) NOT NULL,
		economy          NUMERIC(12,2) NOT NULL,
		discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
		notes            TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id                BIGSERIAL PRIMARY KEY,
		order_id          BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id        TEXT NOT NULL,
		product_name      TEXT,
		selected_color    TEXT,
		selected_size     TEXT,
		qty               INT NOT NULL,
		unit_retail_price NUMERIC(12,2) NOT NULL,
		unit_price        NUMERIC(12,2) NOT NULL,
		line_total        NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id         BIGSERIAL PRIMARY KEY,
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		target_ref TEXT NOT NULL,
		details    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS product_media (
		id            BIGSERIAL PRIMARY KEY,
		product_id    UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		position      INT NOT NULL DEFAULT 1,
		drive_file_id TEXT UNIQUE,
		thumb_path    TEXT NOT NULL,
		medium_path   TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)`,
}
