package cost

import (
	"fmt"
	"strconv"
	"strings"
)

const crystalGlyph = "{CP}"

// PayCrystal is a cost part paid in Crystal Points.
type PayCrystal struct {
	amount   int
	variable bool

	paidAmount int
}

// NewPayCrystal parses amount as a non-negative decimal integer.
func NewPayCrystal(amount string) (*PayCrystal, error) {
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	if n < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, n)
	}

	return &PayCrystal{amount: n}, nil
}

// NewPayCrystalX returns a part whose amount is chosen at payment time
// through Decision.X.
func NewPayCrystalX() *PayCrystal {
	return &PayCrystal{variable: true}
}

func (p *PayCrystal) Kind() Kind { return KindPayCrystal }

func (p *PayCrystal) PaymentOrder() int { return 7 }

// Amount is the fixed amount owed. It is 0 for a variable part.
func (p *PayCrystal) Amount() int { return p.amount }

func (p *PayCrystal) IsVariable() bool { return p.variable }

// PaidAmount is the amount charged by the last successful PayAsDecided.
func (p *PayCrystal) PaidAmount() int { return p.paidAmount }

// CanPay never mutates the payer. A variable part can always be paid with X=0.
func (p *PayCrystal) CanPay(payer Payer) bool {
	return payer.CanPayCrystals(requirement(p.amount))
}

// PayAsDecided charges the payer. The paid amount is only recorded when the
// payer accepted the charge. Calling it again after a success charges again.
func (p *PayCrystal) PayAsDecided(payer Payer, d Decision) bool {
	amount := p.amountFor(d)
	if amount < 0 {
		return false
	}

	if !payer.PayCrystals(requirement(amount)) {
		return false
	}

	p.paidAmount = amount

	return true
}

// Refund does nothing: Crystal Points are not returned when a spell or
// ability fizzles.
func (p *PayCrystal) Refund() {}

func (p *PayCrystal) MaxAmountX(payer Payer) int {
	return payer.TotalCrystals()
}

func (p *PayCrystal) String() string {
	if p.variable {
		return "Pay X " + crystalGlyph
	}

	return "Pay " + strings.Repeat(crystalGlyph, p.amount)
}

func (p *PayCrystal) amountFor(d Decision) int {
	if p.variable {
		return d.X
	}

	return p.amount
}
