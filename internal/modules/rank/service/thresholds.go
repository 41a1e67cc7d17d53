package service

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var defaultThresholdsYAML []byte

// Threshold is one named tier of the rank ladder. MaxXP of the top tier is
// validated but ignored: any xp at or past its MinXP reports 100% progress.
type Threshold struct {
	Level int    `yaml:"level" json:"level"`
	Name  string `yaml:"name" json:"name"`
	MinXP int64  `yaml:"min_xp" json:"min_xp"`
	MaxXP int64  `yaml:"max_xp" json:"max_xp"`
	Pips  int    `yaml:"pips" json:"pips"`
}

// Table is an immutable, validated rank ladder.
type Table struct {
	// desc is ordered by MinXP descending for lookup.
	desc []Threshold
}

var ErrInvalidThresholds = errors.New("invalid rank thresholds")

// LoadThresholds parses a YAML list of tiers and checks that they cover [0, ∞)
// without gaps or overlaps.
func LoadThresholds(data []byte) (*Table, error) {
	var tiers []Threshold
	if err := yaml.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	return NewTable(tiers)
}

func NewTable(tiers []Threshold) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidThresholds)
	}

	asc := make([]Threshold, len(tiers))
	copy(asc, tiers)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].MinXP < asc[j].MinXP })

	if asc[0].MinXP != 0 {
		return nil, fmt.Errorf("%w: lowest tier %q must start at 0", ErrInvalidThresholds, asc[0].Name)
	}
	for i, t := range asc {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidThresholds, i)
		}
		if t.MaxXP < t.MinXP {
			return nil, fmt.Errorf("%w: tier %q max below min", ErrInvalidThresholds, t.Name)
		}
		if i == 0 {
			continue
		}
		prev := asc[i-1]
		if t.MinXP != prev.MaxXP+1 {
			return nil, fmt.Errorf("%w: %q must start at %d", ErrInvalidThresholds, t.Name, prev.MaxXP+1)
		}
		if t.Level <= prev.Level {
			return nil, fmt.Errorf("%w: level of %q must exceed %q", ErrInvalidThresholds, t.Name, prev.Name)
		}
	}

	desc := make([]Threshold, len(asc))
	for i := range asc {
		desc[len(asc)-1-i] = asc[i]
	}
	return &Table{desc: desc}, nil
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return LoadThresholds(defaultThresholdsYAML)
})

// DefaultTable returns the embedded starfleet ladder.
func DefaultTable() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

// Top is the highest tier.
func (t *Table) Top() Threshold {
	return t.desc[0]
}

// Bottom is the lowest tier.
func (t *Table) Bottom() Threshold {
	return t.desc[len(t.desc)-1]
}

// Ascending returns a copy of the tiers from lowest to highest.
func (t *Table) Ascending() []Threshold {
	out := make([]Threshold, len(t.desc))
	for i := range t.desc {
		out[len(t.desc)-1-i] = t.desc[i]
	}
	return out
}
