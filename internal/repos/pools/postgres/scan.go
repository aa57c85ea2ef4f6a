package pools

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/crystal"
)

// scanPool reads (element, amount) rows into a pool.
func scanPool(rows *sql.Rows) (crystal.Pool, error) {
	defer rows.Close()

	var pool crystal.Pool

	for rows.Next() {
		var (
			name   string
			amount int
		)

		err := rows.Scan(&name, &amount)
		if err != nil {
			return crystal.Pool{}, fmt.Errorf("scan crystal row: %w", err)
		}

		e, err := crystal.ParseElement(name)
		if err != nil {
			return crystal.Pool{}, fmt.Errorf("stored crystal row: %w", err)
		}

		pool.Add(e, amount)
	}

	err := rows.Err()
	if err != nil {
		return crystal.Pool{}, fmt.Errorf("iterate crystal rows: %w", err)
	}

	return pool, nil
}
