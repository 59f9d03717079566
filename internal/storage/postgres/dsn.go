package postgres

import (
	"fmt"

	"github.com/timeledger/timeledger-backend/config"
)

// DSN builds a keyword/value connection string accepted by both lib/pq
// and pgx.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)
}
