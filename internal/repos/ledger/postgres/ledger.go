package ledger

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/infra/pgutils"
	"github.com/fastprodman/crystalpay/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Insert(tx *sql.Tx, entry ledger.Entry) error {
	_, err := tx.Exec(`
		INSERT INTO ledger (entry_id, player_id, kind, amount, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID.String(), entry.PlayerID, string(entry.Kind), entry.Amount, entry.Detail)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return ledger.ErrDuplicateEntry
		}

		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return nil
}
