package pools

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/repos/pools"
)

func (r *poolsRepo) Exists(tx *sql.Tx, playerID uint64) error {
	var exists bool

	err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)
	`, playerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return pools.ErrPlayerNotFound
	}

	return nil
}
