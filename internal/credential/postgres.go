package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
)

// PostgresBackend stores users in a PostgreSQL table. Uniqueness is enforced
// by the primary key, so concurrent signups need no application lock.
type PostgresBackend struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresBackend connects to databaseURL and ensures the users table.
func NewPostgresBackend(ctx context.Context, databaseURL, table string) (*PostgresBackend, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if table == "" {
		table = "users"
	}
	b := &PostgresBackend{pool: pool, table: pq.QuoteIdentifier(table)}

	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			username      TEXT PRIMARY KEY,
			id            TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, b.table)

	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user by username.
func (b *PostgresBackend) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password_hash, created_at
		FROM %s
		WHERE username = $1
	`, b.table)

	var user model.User
	var createdAt time.Time
	err := b.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	createdAt = createdAt.UTC()
	user.CreatedAt = &createdAt
	return &user, nil
}

// Insert adds user; an existing username yields ErrUsernameTaken.
func (b *PostgresBackend) Insert(ctx context.Context, user *model.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, id, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
	`, b.table)

	createdAt := time.Now().UTC()
	if user.CreatedAt != nil {
		createdAt = *user.CreatedAt
	}

	tag, err := b.pool.Exec(ctx, query,
		user.Username,
		user.ID,
		user.PasswordHash,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUsernameTaken
	}
	return nil
}

// Ping checks database connectivity.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (b *PostgresBackend) Close() {
	b.pool.Close()
}
