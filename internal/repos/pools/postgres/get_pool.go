package pools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/crystal"
	"github.com/fastprodman/crystalpay/internal/repos/pools"
)

// GetPool reads a player's pool without locking.
func (r *poolsRepo) GetPool(ctx context.Context, playerID uint64) (crystal.Pool, error) {
	var id uint64

	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM players WHERE id = $1
	`, playerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return crystal.Pool{}, pools.ErrPlayerNotFound
		}

		return crystal.Pool{}, fmt.Errorf("get player: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT element, amount
		FROM crystal_pools
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		return crystal.Pool{}, fmt.Errorf("get pool: %w", err)
	}

	return scanPool(rows)
}
