package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nicole-nieto/tienda-online/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service wraps the database handle and exposes health information
type Service interface {
	DB() *sql.DB
	Health() map[string]string
	Close() error
}

type service struct {
	db *sql.DB
}

// New opens a PostgreSQL connection pool from the given configuration
func New(cfg config.DatabaseConfig) (Service, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema,
	)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &service{db: db}, nil
}

// DB returns the underlying sql.DB handle
func (s *service) DB() *sql.DB {
	return s.db
}

// Health pings the database and reports connection pool statistics
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	dbStats := s.db.Stats()
	stats["status"] = "up"
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)

	return stats
}

// Close closes the database connection pool
func (s *service) Close() error {
	return s.db.Close()
}
