package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// OpenPostgres opens and pings a PostgreSQL connection.
func OpenPostgres(ctx context.Context, config DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return db, nil
}

// PostgresStorage keeps counters in the escalation_counters table. Rows idle
// for longer than the TTL count as zero and are restarted on increment.
type PostgresStorage struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStorage wraps db and applies the schema.
func NewPostgresStorage(db *sql.DB, ttl time.Duration) (*PostgresStorage, error) {
	storage := &PostgresStorage{db: db, ttl: ttl}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, conversationID string) (int, error) {
	query := `
		SELECT count
		FROM escalation_counters
		WHERE conversation_id = $1 AND updated_at >= $2`

	var count int
	err := s.db.QueryRowContext(ctx, query, conversationID, s.cutoff()).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading counter: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) Increment(ctx context.Context, conversationID string) (int, error) {
	query := `
		INSERT INTO escalation_counters (conversation_id, count, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (conversation_id) DO UPDATE
		SET count = CASE
				WHEN escalation_counters.updated_at < $2 THEN 1
				ELSE escalation_counters.count + 1
			END,
			updated_at = now()
		RETURNING count`

	var count int
	if err := s.db.QueryRowContext(ctx, query, conversationID, s.cutoff()).Scan(&count); err != nil {
		return 0, fmt.Errorf("error incrementing counter: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) Reset(ctx context.Context, conversationID string) error {
	query := `DELETE FROM escalation_counters WHERE conversation_id = $1`

	if _, err := s.db.ExecContext(ctx, query, conversationID); err != nil {
		return fmt.Errorf("error resetting counter: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// cutoff is the oldest updated_at still counted. Without a TTL every row
// counts.
func (s *PostgresStorage) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Unix(0, 0)
	}
	return time.Now().Add(-s.ttl)
}
