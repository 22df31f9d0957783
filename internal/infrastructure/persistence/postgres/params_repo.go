package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODEL PARAMETERS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ParamsRepository implements pairing.ParamsRepository for PostgreSQL.
// Parameter rows are versioned and append-only; the newest row wins.
type ParamsRepository struct {
	conn *Connection
}

// NewParamsRepository creates a new ParamsRepository.
func NewParamsRepository(conn *Connection) *ParamsRepository {
	return &ParamsRepository{conn: conn}
}

// FetchLatest returns the most recently tuned model parameters, or the
// built-in defaults when nothing has been tuned yet.
func (r *ParamsRepository) FetchLatest(ctx context.Context) (pairing.ModelParameters, error) {
	query := `
		SELECT version, skill_weight, preference_weight, historical_weight
		FROM model_parameters
		ORDER BY created_at DESC
		LIMIT 1
	`

	var params pairing.ModelParameters
	err := r.conn.QueryRow(ctx, query).Scan(
		&params.Version,
		&params.SkillWeight,
		&params.PreferenceWeight,
		&params.HistoricalWeight,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pairing.DefaultModelParameters(), nil
		}
		return pairing.ModelParameters{}, fmt.Errorf("failed to fetch model parameters: %w", err)
	}

	if err := params.Validate(); err != nil {
		return pairing.ModelParameters{}, fmt.Errorf("stored model parameters invalid: %w", err)
	}

	return params, nil
}

// Save appends a new model parameter version.
func (r *ParamsRepository) Save(ctx context.Context, params pairing.ModelParameters) error {
	if err := params.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO model_parameters (version, skill_weight, preference_weight, historical_weight)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query,
		params.Version,
		params.SkillWeight,
		params.PreferenceWeight,
		params.HistoricalWeight,
	)
	if err != nil {
		return fmt.Errorf("failed to save model parameters: %w", err)
	}

	return nil
}
