package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"chatsales_api/config"
	"chatsales_api/pkg/logger"

	_ "github.com/lib/pq"
)

const maxRetries = 10
const dbMaxOpenConns = 20
const retryDelay = 5 * time.Second

type PostgresDatabase struct {
	config.DbConfig
	maxOpenConns int
	log          logger.Logger
	db           *sql.DB
	mu           sync.Mutex
}

func NewPgConnector(dbConfig config.DbConfig, maxOpenConns int, log logger.Logger) *PostgresDatabase {
	if maxOpenConns <= 0 {
		maxOpenConns = dbMaxOpenConns
	}
	return &PostgresDatabase{DbConfig: dbConfig, maxOpenConns: maxOpenConns, log: log}
}

func (pg *PostgresDatabase) Connect(ctx context.Context) (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < maxRetries; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", conStr)
		if err != nil {
			pg.log.Log("Failed to open Postgres (attempt %d/%d): %v", i+1, maxRetries, err)
		} else {
			db.SetMaxOpenConns(pg.maxOpenConns)
			db.SetMaxIdleConns(pg.maxOpenConns)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err = db.PingContext(ctx); err == nil {
				pg.log.Log("Successfully connected to Postgres")
				pg.db = db
				return pg.db, nil
			}
			pg.log.Log("Failed to ping Postgres (attempt %d/%d): %v", i+1, maxRetries, err)
			db.Close()
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres connect cancelled: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return nil, err
}

func (pg *PostgresDatabase) Ping(ctx context.Context) error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
