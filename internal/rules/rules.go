package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fastprodman/crystalpay/internal/cost"
)

var (
	ErrInvalidCatalog = errors.New("invalid rules catalog")
	ErrUnknownAbility = errors.New("unknown ability")
)

// RawCatalog mirrors the YAML rules file.
type RawCatalog struct {
	Version     string            `yaml:"version"`
	MaxCrystals int               `yaml:"max_crystals"`
	Abilities   map[string]string `yaml:"abilities"`
}

// Catalog is a validated rules file. Every ability cost is known to parse.
type Catalog struct {
	Version     string
	MaxCrystals int

	abilities map[string]string
}

// Empty returns a catalog with no abilities and no crystal cap.
func Empty() *Catalog {
	return &Catalog{abilities: map[string]string{}}
}

// Load reads and validates a rules file. An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Empty(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return Decode(b)
}

func Decode(b []byte) (*Catalog, error) {
	var raw RawCatalog

	err := yaml.Unmarshal(b, &raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}

	err = Validate(raw)
	if err != nil {
		return nil, err
	}

	abilities := make(map[string]string, len(raw.Abilities))
	for name, text := range raw.Abilities {
		abilities[name] = text
	}

	return &Catalog{
		Version:     raw.Version,
		MaxCrystals: raw.MaxCrystals,
		abilities:   abilities,
	}, nil
}

// Validate collects every problem in raw instead of stopping at the first.
func Validate(raw RawCatalog) error {
	var errs []string

	if raw.MaxCrystals < 0 {
		errs = append(errs, "max_crystals must be >= 0 (0 means no cap)")
	}

	names := make([]string, 0, len(raw.Abilities))
	for name := range raw.Abilities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, "abilities: empty ability name")
			continue
		}

		_, err := cost.Parse(raw.Abilities[name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("abilities.%s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}

	return nil
}

// Cost returns a fresh cost for the named ability. Costs record what was paid,
// so callers get a new one per payment.
func (c *Catalog) Cost(ability string) (*cost.Cost, error) {
	text, ok := c.abilities[ability]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAbility, ability)
	}

	parsed, err := cost.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse cost of %q: %w", ability, err)
	}

	return parsed, nil
}

func (c *Catalog) Abilities() []string {
	names := make([]string, 0, len(c.abilities))
	for name := range c.abilities {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
