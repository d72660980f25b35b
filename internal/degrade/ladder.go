// Package degrade holds the ordered capability-tier ladder the orchestrator
// walks down when a backend fails.
package degrade

import (
	"errors"
	"fmt"

	"github.com/brainstem-ai/brainstem/internal/config"
)

// ErrExhausted reports that the ladder has no tier left to fall back to.
var ErrExhausted = errors.New("all capability tiers exhausted")

// Tier is one backend + tool-subset combination.
type Tier struct {
	Label   string
	Backend string
	// Tools restricts the tool set at this tier. nil means the full
	// registry; an empty non-nil slice means text-only.
	Tools []string
}

// ToolSubset returns the tool restriction in registry terms.
func (t Tier) ToolSubset() []string {
	return t.Tools
}

// Ladder is the ordered tier list, most capable first.
type Ladder []Tier

// FromConfig converts the config ladder section. Validation has already
// checked backend references and the text-only terminal tier.
func FromConfig(tiers []config.TierConfig) Ladder {
	out := make(Ladder, 0, len(tiers))
	for _, tc := range tiers {
		tier := Tier{
			Label:   tc.Label,
			Backend: tc.Backend,
		}
		switch {
		case tc.TextOnly:
			tier.Tools = []string{}
		case len(tc.Tools) > 0:
			tier.Tools = append([]string(nil), tc.Tools...)
		}
		out = append(out, tier)
	}
	return out
}

// Controller walks the ladder for a single turn. Each new user message gets a
// fresh controller, so a transient failure never downgrades the session
// permanently.
type Controller struct {
	ladder Ladder
	idx    int
}

// NewController starts at the most capable tier.
func NewController(ladder Ladder) (*Controller, error) {
	if len(ladder) == 0 {
		return nil, errors.New("ladder must have at least one tier")
	}
	return &Controller{ladder: ladder}, nil
}

// Current returns the active tier.
func (c *Controller) Current() Tier {
	return c.ladder[c.idx]
}

// Next advances to the next tier. It returns ErrExhausted when the terminal
// tier has already failed.
func (c *Controller) Next() (Tier, error) {
	if c.idx+1 >= len(c.ladder) {
		return Tier{}, fmt.Errorf("%w (after %d tiers)", ErrExhausted, len(c.ladder))
	}
	c.idx++
	return c.ladder[c.idx], nil
}

// Attempted reports how many tiers have been tried so far, counting the
// current one.
func (c *Controller) Attempted() int {
	return c.idx + 1
}
