package pools

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/crystal"
	"github.com/fastprodman/crystalpay/internal/repos/pools"
)

// LockAndGetPool locks the player row, so it serializes writers even when the
// player holds no crystals, then reads the pool.
func (r *poolsRepo) LockAndGetPool(tx *sql.Tx, playerID uint64) (crystal.Pool, error) {
	var id uint64

	err := tx.QueryRow(`
		SELECT id
		FROM players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return crystal.Pool{}, pools.ErrPlayerNotFound
		}

		return crystal.Pool{}, fmt.Errorf("lock player: %w", err)
	}

	rows, err := tx.Query(`
		SELECT element, amount
		FROM crystal_pools
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		return crystal.Pool{}, fmt.Errorf("get locked pool: %w", err)
	}

	return scanPool(rows)
}
