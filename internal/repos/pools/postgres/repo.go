package pools

import (
	"database/sql"

	"github.com/fastprodman/crystalpay/internal/repos/pools"
)

var _ pools.Pools = (*poolsRepo)(nil)

type poolsRepo struct{ db *sql.DB }

func New(db *sql.DB) *poolsRepo {
	return &poolsRepo{db: db}
}
