package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the ledger tables when they do not exist yet.  Money is
// DECIMAL(12,2); timestamps keep milliseconds so bids placed in the same
// second still order by arrival.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    CHAR(36)    NOT NULL,
		token_hash CHAR(64)    NOT NULL,
		expires_at DATETIME    NOT NULL,
		revoked_at DATETIME    NULL,
		created_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS auctions (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		name           VARCHAR(255)  NOT NULL,
		description    TEXT          NOT NULL,
		starting_price DECIMAL(12,2) NOT NULL,
		duration       INT           NOT NULL,
		end_time       DATETIME(3)   NOT NULL,
		status         ENUM('active','ended','closed') NOT NULL DEFAULT 'active',
		highest_bid_id CHAR(36)      NULL,
		user_id        CHAR(36)      NOT NULL,
		created_at     DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at     DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_auctions_seller (user_id),
		KEY idx_auctions_created (created_at),
		CONSTRAINT fk_auctions_seller FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bids (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		auction_id  CHAR(36)      NOT NULL,
		user_id     CHAR(36)      NOT NULL,
		amount      DECIMAL(12,2) NOT NULL,
		status      ENUM('pending','accepted','rejected') NOT NULL DEFAULT 'pending',
		accepted_at DATETIME(3)   NULL,
		rejected_at DATETIME(3)   NULL,
		created_at  DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at  DATETIME(3)   NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_bids_auction_status_amount (auction_id, status, amount),
		KEY idx_bids_bidder (user_id),
		CONSTRAINT fk_bids_auction FOREIGN KEY (auction_id) REFERENCES auctions (id),
		CONSTRAINT fk_bids_bidder FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
