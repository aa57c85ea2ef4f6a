package bankroll

import (
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/crystalpay/internal/crystal"
)

type SourceType string

const (
	SourceGame   SourceType = "game"
	SourceServer SourceType = "server"
)

// Grant adds crystals of one element to a player's pool.
type Grant struct {
	GrantID  uuid.UUID
	PlayerID uint64
	Source   SourceType
	Element  crystal.Element
	Amount   int
}

// Payment charges a cost to a player's pool. Either Cost (cost text such as
// "PayCrystal<2>") or Ability (a name from the rules catalog) is set.
type Payment struct {
	PaymentID uuid.UUID
	PlayerID  uint64
	Cost      string
	Ability   string
	X         int
}

// Receipt describes a committed payment.
type Receipt struct {
	PaymentID uuid.UUID
	Cost      string
	Paid      int
	Remaining crystal.Pool
}

// Quote is a read-only look at whether a payment would go through.
type Quote struct {
	Cost     string
	CanPay   bool
	Required int
	Held     int
	MaxX     int
}

var (
	ErrInsufficientCrystals = errors.New("insufficient crystals")
	ErrInvalidRequest       = errors.New("invalid request")
)
