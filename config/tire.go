package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Compound selects a tire compound. Compounds trade peak grip for a
// different operating temperature window.
type Compound uint8

const (
	CompoundMedium Compound = iota
	CompoundSoft
	CompoundHard
)

type compoundSpec struct {
	name       string
	grip       float64 // PeakMu multiplier relative to medium
	tempOffset float64 // °C added to the optimal temperature
}

var compounds = map[Compound]compoundSpec{
	CompoundMedium: {"medium", 1.0, 0},
	CompoundSoft:   {"soft", 1.08, -10},
	CompoundHard:   {"hard", 0.94, 10},
}

// Compounds lists the selectable compounds in display order.
var Compounds = []Compound{CompoundSoft, CompoundMedium, CompoundHard}

func (c Compound) String() string {
	if s, ok := compounds[c]; ok {
		return s.name
	}
	return fmt.Sprintf("compound(%d)", c)
}

// UnmarshalYAML decodes a compound from its name.
func (c *Compound) UnmarshalYAML(node *yaml.Node) error {
	for k, v := range compounds {
		if v.name == node.Value {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown tire compound %q", node.Value)
}

// MarshalYAML encodes a compound as its name.
func (c Compound) MarshalYAML() (any, error) {
	return c.String(), nil
}

// WithCompound returns a copy of p rescaled from its current compound to c.
func (p TireParameters) WithCompound(c Compound) TireParameters {
	from, ok := compounds[p.Compound]
	if !ok {
		from = compounds[CompoundMedium]
	}
	to, ok := compounds[c]
	if !ok {
		return p
	}
	p.PeakMu *= to.grip / from.grip
	p.OptimalTemp += to.tempOffset - from.tempOffset
	p.Compound = c
	return p
}
