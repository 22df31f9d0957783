package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PLAYERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create players and session membership
-- Version: 001

CREATE TABLE IF NOT EXISTS players (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    skill_level INTEGER,
    win_rate DECIMAL(4,3),
    games_played INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    preferences JSONB,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('active', 'inactive', 'guest')),
    CONSTRAINT valid_skill CHECK (skill_level IS NULL OR (skill_level >= 0 AND skill_level <= 100)),
    CONSTRAINT valid_win_rate CHECK (win_rate IS NULL OR (win_rate >= 0 AND win_rate <= 1)),
    CONSTRAINT valid_games CHECK (games_played >= 0)
);

CREATE INDEX IF NOT EXISTS idx_players_status ON players(status);

-- Session membership: which players take part in which play session.
CREATE TABLE IF NOT EXISTS session_players (
    session_id VARCHAR(64) NOT NULL,
    player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (session_id, player_id)
);

CREATE INDEX IF NOT EXISTS idx_session_players_session ON session_players(session_id);
`

const migration001Down = `
DROP TABLE IF EXISTS session_players;
DROP TABLE IF EXISTS players;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PAIRING OUTCOMES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create append-only pairing outcome history
-- Version: 002

CREATE TABLE IF NOT EXISTS pairing_outcomes (
    id BIGSERIAL PRIMARY KEY,
    session_id VARCHAR(64) NOT NULL,
    player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    partner_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    feedback SMALLINT NOT NULL,
    outcome VARCHAR(10) NOT NULL,
    ai_suggested BOOLEAN NOT NULL DEFAULT FALSE,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_feedback CHECK (feedback >= 1 AND feedback <= 5),
    CONSTRAINT valid_outcome CHECK (outcome IN ('win', 'loss')),
    CONSTRAINT no_self_pairing CHECK (player_id <> partner_id)
);

CREATE INDEX IF NOT EXISTS idx_pairing_outcomes_player ON pairing_outcomes(player_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_pairing_outcomes_session ON pairing_outcomes(session_id);
`

const migration002Down = `
DROP TABLE IF EXISTS pairing_outcomes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE MODEL PARAMETERS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create tuned model parameter versions
-- Version: 003

CREATE TABLE IF NOT EXISTS model_parameters (
    id BIGSERIAL PRIMARY KEY,
    version VARCHAR(40) NOT NULL,
    skill_weight DECIMAL(4,3) NOT NULL,
    preference_weight DECIMAL(4,3) NOT NULL,
    historical_weight DECIMAL(4,3) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_weights CHECK (
        skill_weight >= 0 AND preference_weight >= 0 AND historical_weight >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_model_parameters_created ON model_parameters(created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS model_parameters;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents one schema migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_players",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_pairing_outcomes",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_model_parameters",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns all applied migration versions.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time

		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}

		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf(
				"INSERT INTO %s (version, name) VALUES ($1, $2)",
				m.tableName,
			)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			// A duplicate version row means another instance applied
			// this migration between our snapshot and the insert.
			if IsUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// Rollback rolls back the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	var lastVersion int
	for v := range applied {
		if v > lastVersion {
			lastVersion = v
		}
	}

	if lastVersion == 0 {
		return nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == lastVersion {
			migration = &m.migrations[i]
			break
		}
	}

	if migration == nil || migration.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, lastVersion)
	}

	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", lastVersion, err)
		}

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName)
		_, err := tx.Exec(ctx, deleteQuery, lastVersion)
		return err
	})
}
