package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table, in dependency order.  Each
// statement is idempotent so EnsureSchema can run on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		display_name  VARCHAR(255)    NOT NULL DEFAULT '',
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(16)     NOT NULL DEFAULT 'FAN',
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS fractional_songs (
		id                      BIGINT UNSIGNED NOT NULL,
		artist_id               BIGINT UNSIGNED NOT NULL,
		title                   VARCHAR(255)    NOT NULL,
		total_shares            BIGINT UNSIGNED NOT NULL,
		artist_reserved_shares  BIGINT UNSIGNED NOT NULL,
		available_shares        BIGINT UNSIGNED NOT NULL,
		current_price_per_share DOUBLE          NOT NULL,
		status                  VARCHAR(16)     NOT NULL,
		trading_disabled        TINYINT(1)      NOT NULL DEFAULT 0,
		version                 BIGINT UNSIGNED NOT NULL,
		created_at              DATETIME        NOT NULL,
		updated_at              DATETIME        NOT NULL,
		PRIMARY KEY (id),
		KEY idx_songs_artist (artist_id),
		KEY idx_songs_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS share_ownerships (
		user_id        BIGINT UNSIGNED NOT NULL,
		song_id        BIGINT UNSIGNED NOT NULL,
		shares_owned   BIGINT UNSIGNED NOT NULL,
		percentage     DOUBLE          NOT NULL,
		purchase_price DOUBLE          NOT NULL,
		acquired_at    DATETIME        NOT NULL,
		updated_at     DATETIME        NOT NULL,
		PRIMARY KEY (song_id, user_id),
		KEY idx_ownerships_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS share_transactions (
		id               CHAR(36)        NOT NULL,
		song_id          BIGINT UNSIGNED NOT NULL,
		buyer_id         BIGINT UNSIGNED NULL,
		seller_id        BIGINT UNSIGNED NULL,
		shares_quantity  BIGINT UNSIGNED NOT NULL,
		price_per_share  DOUBLE          NOT NULL,
		transaction_type VARCHAR(16)     NOT NULL,
		status           VARCHAR(16)     NOT NULL,
		payment_ref      VARCHAR(128)    NULL,
		created_at       DATETIME        NOT NULL,
		updated_at       DATETIME        NOT NULL,
		PRIMARY KEY (id),
		KEY idx_txns_song_status (song_id, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS revenue_distributions (
		id                  CHAR(36)        NOT NULL,
		song_id             BIGINT UNSIGNED NOT NULL,
		period              VARCHAR(32)     NOT NULL,
		total_revenue_cents BIGINT          NOT NULL,
		created_at          DATETIME        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_dist_song_period (song_id, period)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS distribution_payouts (
		distribution_id CHAR(36)        NOT NULL,
		holder_id       BIGINT UNSIGNED NOT NULL,
		amount_cents    BIGINT          NOT NULL,
		status          VARCHAR(16)     NOT NULL,
		attempts        INT UNSIGNED    NOT NULL DEFAULT 0,
		payment_ref     VARCHAR(128)    NULL,
		updated_at      DATETIME        NOT NULL,
		PRIMARY KEY (distribution_id, holder_id),
		KEY idx_payouts_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		id           CHAR(36)        NOT NULL,
		song_id      BIGINT UNSIGNED NOT NULL,
		event_type   VARCHAR(64)     NOT NULL,
		payload      JSON            NOT NULL,
		created_at   DATETIME        NOT NULL,
		published_at DATETIME        NULL,
		PRIMARY KEY (id),
		KEY idx_outbox_unpublished (published_at, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS mint_jobs (
		id         CHAR(36)        NOT NULL,
		song_id    BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		percentage DOUBLE          NOT NULL,
		status     VARCHAR(16)     NOT NULL,
		attempts   INT UNSIGNED    NOT NULL DEFAULT 0,
		token_id   VARCHAR(128)    NULL,
		created_at DATETIME        NOT NULL,
		updated_at DATETIME        NOT NULL,
		PRIMARY KEY (id),
		KEY idx_mint_status (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.  It runs at startup before
// the server accepts traffic.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
