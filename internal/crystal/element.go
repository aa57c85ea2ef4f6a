package crystal

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownElement = errors.New("unknown element")

// Element tags a crystal. The declaration order below is the fixed
// enumeration order used for rendering and for the flexible phase of Pool.Pay.
type Element uint8

const (
	Fire Element = iota + 1
	Ice
	Wind
	Earth
	Lightning
	Water
	Light
	Dark
)

var elements = [...]Element{Fire, Ice, Wind, Earth, Lightning, Water, Light, Dark}

var elementNames = map[Element]string{
	Fire:      "FIRE",
	Ice:       "ICE",
	Wind:      "WIND",
	Earth:     "EARTH",
	Lightning: "LIGHTNING",
	Water:     "WATER",
	Light:     "LIGHT",
	Dark:      "DARK",
}

var titleCaser = cases.Title(language.English)

// Elements returns every element in enumeration order.
func Elements() []Element {
	out := make([]Element, len(elements))
	copy(out, elements[:])

	return out
}

func (e Element) Valid() bool {
	return e >= Fire && e <= Dark
}

func (e Element) String() string {
	name, ok := elementNames[e]
	if !ok {
		return fmt.Sprintf("Element(%d)", uint8(e))
	}

	return name
}

// DisplayName returns the element name as shown to players, e.g. "Lightning".
func (e Element) DisplayName() string {
	if !e.Valid() {
		return e.String()
	}

	return titleCaser.String(strings.ToLower(e.String()))
}

// ParseElement accepts an element name in any case.
func ParseElement(s string) (Element, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, e := range elements {
		if elementNames[e] == want {
			return e, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

func (e Element) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownElement, uint8(e))
	}

	return []byte(strings.ToLower(e.String())), nil
}

func (e *Element) UnmarshalText(b []byte) error {
	parsed, err := ParseElement(string(b))
	if err != nil {
		return err
	}

	*e = parsed

	return nil
}
