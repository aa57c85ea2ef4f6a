package player

import (
	"errors"
	"fmt"
	"math"

	"github.com/fastprodman/crystalpay/internal/cost"
	"github.com/fastprodman/crystalpay/internal/crystal"
)

var ErrCapExceeded = errors.New("crystal cap exceeded")

var _ cost.Payer = (*Bankroll)(nil)

// Bankroll is a player's crystal pool. It is the only owner of that pool.
type Bankroll struct {
	PlayerID uint64

	// MaxCrystals caps the total a player may hold; 0 means no cap.
	MaxCrystals int

	pool crystal.Pool
}

func New(playerID uint64, pool crystal.Pool) *Bankroll {
	return &Bankroll{PlayerID: playerID, pool: pool}
}

// Grant adds crystals, refusing grants that would take the total past
// MaxCrystals, or past math.MaxInt when there is no cap.
func (b *Bankroll) Grant(e crystal.Element, amount int) error {
	if !e.Valid() {
		return fmt.Errorf("grant %s: %w", e, crystal.ErrUnknownElement)
	}

	if amount <= 0 {
		return fmt.Errorf("grant %d: %w", amount, cost.ErrInvalidAmount)
	}

	limit := math.MaxInt
	if b.MaxCrystals > 0 {
		limit = b.MaxCrystals
	}

	if amount > limit-b.pool.Total() {
		return fmt.Errorf("grant %d with %d held (cap %d): %w", amount, b.pool.Total(), b.MaxCrystals, ErrCapExceeded)
	}

	b.pool.Add(e, amount)

	return nil
}

// Crystals returns a copy of the pool.
func (b *Bankroll) Crystals() crystal.Pool {
	return b.pool.Copy()
}

func (b *Bankroll) Empty() {
	b.pool.Empty()
}

func (b *Bankroll) TotalCrystals() int {
	return b.pool.Total()
}

func (b *Bankroll) CanPayCrystals(req crystal.Pool) bool {
	return b.pool.CanPay(req)
}

func (b *Bankroll) PayCrystals(req crystal.Pool) bool {
	return b.pool.Pay(req)
}
