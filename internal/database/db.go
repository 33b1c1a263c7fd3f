package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB represents a database connection
type DB struct {
	*sqlx.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the lib/pq connection string
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// Configured reports whether enough parameters are set to connect
func (p ConnectionParams) Configured() bool {
	return p.Host != "" && p.DBName != ""
}

// PredictionLog is one row of prediction_logs
type PredictionLog struct {
	Timestamp    time.Time `db:"timestamp"`
	SalesID      string    `db:"sales_id"`
	ModelVersion string    `db:"model_version"`
	Store        int       `db:"store"`
	Promo        int       `db:"promo"`
	Holiday      int       `db:"holiday"`
	Year         int       `db:"year"`
	Month        int       `db:"month"`
	DayOfWeek    int       `db:"dayofweek"`
	IsWeekend    int       `db:"is_weekend"`
	Prediction   float64   `db:"prediction"`
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS prediction_logs (
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			store INTEGER,
			promo INTEGER,
			holiday INTEGER,
			year INTEGER,
			month INTEGER,
			dayofweek INTEGER,
			is_weekend INTEGER,
			prediction FLOAT
		)
	`)
	if err != nil {
		return err
	}

	// Add the newer columns if they don't exist (for existing databases)
	_, err = db.ExecContext(ctx, `
		ALTER TABLE prediction_logs
		ADD COLUMN IF NOT EXISTS sales_id TEXT,
		ADD COLUMN IF NOT EXISTS model_version TEXT
	`)
	return err
}

// InsertPredictionLog stores one prediction with the features it was computed from
func (db *DB) InsertPredictionLog(ctx context.Context, row PredictionLog) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO prediction_logs (
			timestamp, sales_id, model_version, store, promo, holiday,
			year, month, dayofweek, is_weekend, prediction
		) VALUES (
			:timestamp, :sales_id, :model_version, :store, :promo, :holiday,
			:year, :month, :dayofweek, :is_weekend, :prediction
		)
	`, row)
	return err
}

// recentPredictionLogsQuery reads rows written before every column was filled;
// NULLs come back as zero values
const recentPredictionLogsQuery = `
	SELECT
		COALESCE(timestamp, 'epoch'::timestamp) AS timestamp,
		COALESCE(sales_id, '') AS sales_id,
		COALESCE(model_version, '') AS model_version,
		COALESCE(store, 0) AS store,
		COALESCE(promo, 0) AS promo,
		COALESCE(holiday, 0) AS holiday,
		COALESCE(year, 0) AS year,
		COALESCE(month, 0) AS month,
		COALESCE(dayofweek, 0) AS dayofweek,
		COALESCE(is_weekend, 0) AS is_weekend,
		COALESCE(prediction, 0) AS prediction
	FROM prediction_logs
	ORDER BY timestamp DESC NULLS LAST
	LIMIT $1
`

// RecentPredictionLogs returns the latest rows, newest first
func (db *DB) RecentPredictionLogs(ctx context.Context, limit int) ([]PredictionLog, error) {
	var rows []PredictionLog
	if err := db.SelectContext(ctx, &rows, recentPredictionLogsQuery, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
