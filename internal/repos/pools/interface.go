package pools

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fastprodman/crystalpay/internal/crystal"
)

var ErrPlayerNotFound = errors.New("player not found")

type Pools interface {
	Exists(tx *sql.Tx, playerID uint64) error
	GetPool(ctx context.Context, playerID uint64) (crystal.Pool, error)
	LockAndGetPool(tx *sql.Tx, playerID uint64) (crystal.Pool, error)
	SavePool(tx *sql.Tx, playerID uint64, pool crystal.Pool) error
}
