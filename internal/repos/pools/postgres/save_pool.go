package pools

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/crystal"
)

// SavePool replaces the stored rows with pool. Only positive counts are
// written, so an absent row always means zero.
func (r *poolsRepo) SavePool(tx *sql.Tx, playerID uint64, pool crystal.Pool) error {
	_, err := tx.Exec(`
		DELETE FROM crystal_pools
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		return fmt.Errorf("clear pool: %w", err)
	}

	for _, c := range pool.Counts() {
		name, err := c.Element.MarshalText()
		if err != nil {
			return fmt.Errorf("element name: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO crystal_pools (player_id, element, amount)
			VALUES ($1, $2, $3)
		`, playerID, string(name), c.Amount)
		if err != nil {
			return fmt.Errorf("insert %s: %w", c.Element, err)
		}
	}

	return nil
}
