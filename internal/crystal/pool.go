package crystal

import (
	"math"
	"strconv"
	"strings"
)

// Count is one stored entry of a Pool.
type Count struct {
	Element Element `json:"element"`
	Amount  int     `json:"amount"`
}

// Pool holds crystals by element. The zero value is an empty pool.
//
// Pool is a value type: assigning it copies the counts, so a pool handed to
// another owner can never be mutated behind the original owner's back.
// A count of zero means the element is absent.
type Pool struct {
	counts [Dark]int
}

// PoolFrom builds a pool from counts. Entries that Add would ignore are skipped.
func PoolFrom(counts []Count) Pool {
	var p Pool
	for _, c := range counts {
		p.Add(c.Element, c.Amount)
	}

	return p
}

// Add increments element e by amount. It does nothing when amount <= 0, e
// is not a valid element, or the total would no longer fit in an int.
func (p *Pool) Add(e Element, amount int) {
	if amount <= 0 || !e.Valid() {
		return
	}

	if amount > math.MaxInt-p.Total() {
		return
	}

	p.counts[e-1] += amount
}

// Get returns the amount of e held, or 0.
func (p Pool) Get(e Element) int {
	if !e.Valid() {
		return 0
	}

	return p.counts[e-1]
}

func (p Pool) Total() int {
	total := 0
	for _, n := range p.counts {
		total += n
	}

	return total
}

func (p Pool) IsEmpty() bool {
	return p.Total() == 0
}

// CanPay reports whether the pool holds at least req.Total() crystals.
// Elements do not have to match: any crystal can pay for any required one.
func (p Pool) CanPay(req Pool) bool {
	return p.Total() >= req.Total()
}

// Pay removes exactly req.Total() crystals from the pool. It returns false and
// leaves the pool untouched when CanPay(req) is false.
//
// Crystals of the element req asks for are spent first, element by element in
// enumeration order. Any deficit left after that is taken from the remaining
// elements, again in enumeration order.
func (p *Pool) Pay(req Pool) bool {
	if !p.CanPay(req) {
		return false
	}

	next := *p
	remaining := req.Total()

	for _, e := range elements {
		take := min(next.Get(e), req.Get(e))
		next.counts[e-1] -= take
		remaining -= take
	}

	for _, e := range elements {
		if remaining == 0 {
			break
		}

		take := min(next.Get(e), remaining)
		next.counts[e-1] -= take
		remaining -= take
	}

	*p = next

	return true
}

// Empty removes every crystal from the pool.
func (p *Pool) Empty() {
	p.counts = [Dark]int{}
}

// Copy returns an independent pool with the same counts.
func (p Pool) Copy() Pool {
	return p
}

func (p Pool) Equal(other Pool) bool {
	return p.counts == other.counts
}

// Counts lists the stored entries in enumeration order.
func (p Pool) Counts() []Count {
	var out []Count
	for _, e := range elements {
		if n := p.Get(e); n > 0 {
			out = append(out, Count{Element: e, Amount: n})
		}
	}

	return out
}

// String renders the pool as "[FIRE=1, WATER=2]", or "[]" when empty.
func (p Pool) String() string {
	var b strings.Builder

	b.WriteByte('[')

	for i, c := range p.Counts() {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(c.Element.String())
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(c.Amount))
	}

	b.WriteByte(']')

	return b.String()
}
