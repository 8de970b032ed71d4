package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
)

// Repository provides PostgreSQL-based access to player profiles
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS player_profiles (
			sub VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255),
			nickname VARCHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_player_profiles_updated ON player_profiles(updated_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// GetProfile retrieves a player profile by token subject
func (r *Repository) GetProfile(ctx context.Context, subject string) (*domain.PlayerProfile, error) {
	query := `
		SELECT sub, COALESCE(email, ''), nickname, created_at, updated_at
		FROM player_profiles
		WHERE sub = $1
	`
	var p domain.PlayerProfile
	err := r.pool.QueryRow(ctx, query, subject).Scan(
		&p.Subject,
		&p.Email,
		&p.Nickname,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownPlayer
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates the profile or updates its nickname and email
func (r *Repository) UpsertProfile(ctx context.Context, profile domain.PlayerProfile) (*domain.PlayerProfile, error) {
	query := `
		INSERT INTO player_profiles (sub, email, nickname, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $4)
		ON CONFLICT (sub)
		DO UPDATE SET
			email = COALESCE(EXCLUDED.email, player_profiles.email),
			nickname = EXCLUDED.nickname,
			updated_at = EXCLUDED.updated_at
		RETURNING sub, COALESCE(email, ''), nickname, created_at, updated_at
	`
	now := time.Now()
	var p domain.PlayerProfile
	err := r.pool.QueryRow(ctx, query, profile.Subject, profile.Email, profile.Nickname, now).Scan(
		&p.Subject,
		&p.Email,
		&p.Nickname,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns a page of profiles ordered by subject, starting after
// the given subject. Pass an empty subject for the first page.
func (r *Repository) ListProfiles(ctx context.Context, after string, limit int) ([]domain.PlayerInfo, error) {
	query := `
		SELECT sub, nickname
		FROM player_profiles
		WHERE sub > $1
		ORDER BY sub
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var infos []domain.PlayerInfo
	for rows.Next() {
		var info domain.PlayerInfo
		if err := rows.Scan(&info.Subject, &info.Nickname); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
