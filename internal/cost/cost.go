package cost

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Cost is an ordered set of parts paid together.
type Cost struct {
	parts []Part
}

// New sorts parts by payment order, keeping the given order for ties.
func New(parts ...Part) (*Cost, error) {
	if len(parts) == 0 {
		return nil, ErrEmptyCost
	}

	sorted := append([]Part(nil), parts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaymentOrder() < sorted[j].PaymentOrder()
	})

	return &Cost{parts: sorted}, nil
}

// Parse reads a cost such as "PayCrystal<2> PayCrystal<X>".
func Parse(text string) (*Cost, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, ErrEmptyCost
	}

	parts := make([]Part, 0, len(fields))

	for _, f := range fields {
		part, err := parsePart(f)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}

		parts = append(parts, part)
	}

	return New(parts...)
}

func parsePart(token string) (Part, error) {
	name, rest, ok := strings.Cut(token, "<")
	if !ok || !strings.HasSuffix(rest, ">") {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPart, token)
	}

	arg := strings.TrimSuffix(rest, ">")

	switch name {
	case KindPayCrystal.String():
		if strings.EqualFold(arg, "X") {
			return NewPayCrystalX(), nil
		}

		return NewPayCrystal(arg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPart, name)
	}
}

func (c *Cost) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

func (c *Cost) HasX() bool {
	for _, p := range c.parts {
		if pc, ok := p.(*PayCrystal); ok && pc.IsVariable() {
			return true
		}
	}

	return false
}

// Required is the number of crystals the cost charges under decision d.
// A sum past math.MaxInt saturates there, which no pool can hold.
func (c *Cost) Required(d Decision) int {
	total := 0

	for _, p := range c.parts {
		pc, ok := p.(*PayCrystal)
		if !ok {
			continue
		}

		n := pc.amountFor(d)
		if n > math.MaxInt-total {
			return math.MaxInt
		}

		total += n
	}

	return total
}

// CanPay reports whether the payer covers every part and the combined bill.
// It is advisory: Pay checks again.
func (c *Cost) CanPay(payer Payer, d Decision) bool {
	if d.X < 0 || d.X > c.MaxX(payer) {
		return false
	}

	for _, p := range c.parts {
		if !p.CanPay(payer) {
			return false
		}
	}

	return payer.CanPayCrystals(requirement(c.Required(d)))
}

// MaxX is the largest X the payer can afford once the fixed parts are paid.
// Without a variable part it is 0, so any other X is refused.
func (c *Cost) MaxX(payer Payer) int {
	if !c.HasX() {
		return 0
	}

	fixed := c.Required(Decision{})

	return max(0, payer.TotalCrystals()-fixed)
}

// Pay charges every part in payment order. It checks the combined bill
// first, so a single-owner payer never runs dry halfway through; that check
// is what keeps a multi-part payment all-or-nothing. If a part still fails,
// Refund is called on the parts already paid (a no-op for crystals) and
// ErrCannotPay is returned.
func (c *Cost) Pay(payer Payer, d Decision) error {
	if !c.CanPay(payer, d) {
		return ErrCannotPay
	}

	paid := make([]Part, 0, len(c.parts))

	for _, p := range c.parts {
		if !p.PayAsDecided(payer, d) {
			for i := len(paid) - 1; i >= 0; i-- {
				paid[i].Refund()
			}

			return fmt.Errorf("pay %s: %w", p, ErrCannotPay)
		}

		paid = append(paid, p)
	}

	return nil
}

// Paid sums what the parts recorded on their last successful payment.
func (c *Cost) Paid() int {
	var v paidVisitor

	for _, p := range c.parts {
		// every part kind in this package is handled by paidVisitor
		_ = Visit(p, &v)
	}

	return v.total
}

func (c *Cost) String() string {
	out := make([]string, len(c.parts))
	for i, p := range c.parts {
		out[i] = p.String()
	}

	return strings.Join(out, ", ")
}

type paidVisitor struct {
	total int
}

func (v *paidVisitor) VisitPayCrystal(p *PayCrystal) error {
	v.total += p.PaidAmount()

	return nil
}
