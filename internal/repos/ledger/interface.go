package ledger

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var ErrDuplicateEntry = errors.New("duplicate ledger entry")

type Kind string

const (
	KindGrant   Kind = "grant"
	KindPayment Kind = "payment"
	KindEmpty   Kind = "empty"
)

// Entry records one committed change to a player's pool. Its ID is supplied
// by the caller and makes the change idempotent.
type Entry struct {
	ID       uuid.UUID
	PlayerID uint64
	Kind     Kind
	Amount   int
	Detail   string
}

type Ledger interface {
	Insert(tx *sql.Tx, entry Entry) error
}
