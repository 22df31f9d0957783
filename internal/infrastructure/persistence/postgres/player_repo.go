package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
	"github.com/shuttle-hub/pairing-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PlayerRepository implements player.Repository for PostgreSQL.
type PlayerRepository struct {
	conn *Connection
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(conn *Connection) *PlayerRepository {
	return &PlayerRepository{conn: conn}
}

// FetchPlayers returns the players with the given IDs. IDs with no matching
// row are omitted from the result.
func (r *PlayerRepository) FetchPlayers(ctx context.Context, ids []player.ID) ([]*player.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, skill_level, win_rate, games_played, status, preferences, updated_at
		FROM players
		WHERE id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch players: %w", err)
	}
	defer rows.Close()

	var players []*player.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// FetchSessionPlayerIDs returns the player IDs associated with a session.
func (r *PlayerRepository) FetchSessionPlayerIDs(ctx context.Context, sessionID string) ([]player.ID, error) {
	query := `
		SELECT player_id
		FROM session_players
		WHERE session_id = $1
		ORDER BY joined_at
	`

	rows, err := r.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session players: %w", err)
	}
	defer rows.Close()

	var ids []player.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session player: %w", err)
		}
		ids = append(ids, player.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A session with no members is indistinguishable from an unknown one.
	if len(ids) == 0 {
		return nil, shared.ErrSessionNotFound
	}

	return ids, nil
}

// UpdateSkillLevel persists a recomputed skill level for a player.
func (r *PlayerRepository) UpdateSkillLevel(ctx context.Context, id player.ID, level player.SkillLevel) error {
	query := `
		UPDATE players
		SET skill_level = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.conn.Exec(ctx, query, id.String(), level.Int())
	if err != nil {
		return fmt.Errorf("failed to update skill level: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrPlayerNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*player.Player, error) {
	var (
		id        string
		skill     *int
		winRate   *float64
		games     int
		status    string
		prefsJSON []byte
		updatedAt time.Time
	)

	if err := row.Scan(&id, &skill, &winRate, &games, &status, &prefsJSON, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	p := &player.Player{
		ID:          player.ID(id),
		WinRate:     winRate,
		GamesPlayed: games,
		Status:      player.Status(status),
		UpdatedAt:   updatedAt,
	}

	if skill != nil {
		level := player.SkillLevel(*skill)
		p.Skill = &level
	}

	if len(prefsJSON) > 0 {
		var prefs player.Preferences
		if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
		p.Preferences = prefs
	}

	return p, nil
}

func idStrings(ids []player.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
