package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// Sentinel errors returned by the stores. Services translate these into
// the application error taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type DB struct {
	*sql.DB
}

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func NewConnection(config Config) (*DB, error) {
	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"host":      config.Host,
		"port":      config.Port,
		"database":  config.DBName,
		"ssl_mode":  config.SSLMode,
		"operation": "database_connection",
	})

	logger.Info("Establishing database connection")

	db, err := sql.Open("postgres", config.dsn())
	if err != nil {
		logger.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	configurePool(db)

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("Failed to ping database")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return &DB{db}, nil
}

// NewInstrumentedConnection creates a new database connection with OpenTelemetry instrumentation
func NewInstrumentedConnection(config Config) (*DB, error) {
	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"host":            config.Host,
		"port":            config.Port,
		"database":        config.DBName,
		"operation":       "instrumented_database_connection",
		"instrumentation": "opentelemetry",
	})

	logger.Info("Establishing instrumented database connection")

	port, _ := strconv.Atoi(config.Port)

	db, err := otelsql.Open("postgres", config.dsn(),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBName(config.DBName),
			semconv.NetPeerName(config.Host),
			semconv.NetPeerPort(port),
		),
	)
	if err != nil {
		logger.WithError(err).Error("Failed to open instrumented database connection")
		return nil, fmt.Errorf("failed to open instrumented database: %w", err)
	}

	configurePool(db)

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("Failed to ping instrumented database")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db,
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBName(config.DBName),
		),
	); err != nil {
		logger.WithError(err).Warn("Failed to register database stats")
	}

	logger.Info("Instrumented database connection established successfully")
	return &DB{db}, nil
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func (db *DB) Health() error {
	return db.Ping()
}

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (db *DB) WithTransaction(fn func(*sql.Tx) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
