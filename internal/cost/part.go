package cost

import (
	"errors"
	"fmt"

	"github.com/fastprodman/crystalpay/internal/crystal"
)

var (
	ErrInvalidAmount = errors.New("invalid cost amount")
	ErrUnknownPart   = errors.New("unknown cost part")
	ErrUnknownKind   = errors.New("unknown cost part kind")
	ErrEmptyCost     = errors.New("empty cost")
	ErrCannotPay     = errors.New("cost cannot be paid")
)

// Payer is whoever a cost is charged to, typically a player's bankroll.
type Payer interface {
	TotalCrystals() int
	CanPayCrystals(req crystal.Pool) bool
	PayCrystals(req crystal.Pool) bool
}

// Decision carries the payer's choices for a payment. X is the amount chosen
// for a variable part and is ignored by fixed parts.
type Decision struct {
	X int
}

type Kind int

const (
	KindPayCrystal Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindPayCrystal:
		return "PayCrystal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Part is one entry of a composite cost. Every resource kind implements the
// same contract so the scheduler in Cost never needs to know which kind it
// is paying.
type Part interface {
	Kind() Kind
	// PaymentOrder ranks parts within a cost; lower pays first.
	PaymentOrder() int
	CanPay(payer Payer) bool
	PayAsDecided(payer Payer, d Decision) bool
	Refund()
	// MaxAmountX is the largest X the payer could afford for this part.
	MaxAmountX(payer Payer) int
	String() string
}

// Visitor inspects cost parts without type assertions at the call site.
type Visitor interface {
	VisitPayCrystal(p *PayCrystal) error
}

// Visit dispatches part to the matching Visitor method.
func Visit(part Part, v Visitor) error {
	switch p := part.(type) {
	case *PayCrystal:
		return v.VisitPayCrystal(p)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, part)
	}
}

// requirement is the bill handed to the payer. Crystal costs accept any
// element, so the whole amount sits under a single placeholder element.
func requirement(amount int) crystal.Pool {
	var req crystal.Pool
	req.Add(crystal.Fire, amount)

	return req
}
