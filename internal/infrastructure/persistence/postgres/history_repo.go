package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/player"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAIRING HISTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository implements player.HistoryRepository for PostgreSQL.
// The pairing_outcomes table is append-only; rows are never updated.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// AppendRecord appends one pairing outcome for a player.
func (r *HistoryRepository) AppendRecord(ctx context.Context, sessionID string, playerID player.ID, record player.PairingOutcome) error {
	query := `
		INSERT INTO pairing_outcomes (
			session_id, player_id, partner_id, feedback, outcome, ai_suggested, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		sessionID,
		playerID.String(),
		record.PartnerID.String(),
		record.Feedback,
		string(record.Outcome),
		record.AISuggested,
		record.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append pairing outcome: %w", err)
	}

	return nil
}

// RecentSessionIDs returns the distinct sessions with outcomes recorded
// since the given time. Used by the skill-update sweep to find sessions
// whose players need a recompute.
func (r *HistoryRepository) RecentSessionIDs(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT session_id
		FROM pairing_outcomes
		WHERE occurred_at >= $1
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		sessions = append(sessions, id)
	}

	return sessions, rows.Err()
}

// FetchHistories returns the pairing history of each given player, most
// recent first. Players with no recorded pairings map to an empty slice.
func (r *HistoryRepository) FetchHistories(ctx context.Context, ids []player.ID) (map[player.ID][]player.PairingOutcome, error) {
	histories := make(map[player.ID][]player.PairingOutcome, len(ids))
	for _, id := range ids {
		histories[id] = []player.PairingOutcome{}
	}

	if len(ids) == 0 {
		return histories, nil
	}

	query := `
		SELECT player_id, partner_id, feedback, outcome, ai_suggested, occurred_at
		FROM pairing_outcomes
		WHERE player_id = ANY($1)
		ORDER BY occurred_at DESC
	`

	rows, err := r.conn.Query(ctx, query, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pairing histories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			playerID    string
			partnerID   string
			feedback    int
			outcome     string
			aiSuggested bool
			occurredAt  time.Time
		)

		if err := rows.Scan(&playerID, &partnerID, &feedback, &outcome, &aiSuggested, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan pairing outcome: %w", err)
		}

		id := player.ID(playerID)
		histories[id] = append(histories[id], player.PairingOutcome{
			PartnerID:   player.ID(partnerID),
			Feedback:    feedback,
			Outcome:     player.MatchOutcome(outcome),
			AISuggested: aiSuggested,
			OccurredAt:  occurredAt,
		})
	}

	return histories, rows.Err()
}
