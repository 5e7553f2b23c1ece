package simsystems

import (
	"math"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
)

var patternMovementSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Transform](),
	ecs.ComponentIDFor[components.MovementPattern](),
)

// PatternMovementSystem applies an enemy archetype's "sinusoidal" pattern
// on top of the straight-line path MovementSystem already integrated from
// Velocity. It runs after MovementSystem each tick.
type PatternMovementSystem struct{}

func NewPatternMovementSystem() *PatternMovementSystem { return &PatternMovementSystem{} }

func (s *PatternMovementSystem) Signature() ecs.ComponentSignature { return patternMovementSig }

func (s *PatternMovementSystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(s.Signature()) {
		tr, ok := ecs.GetComponent[components.Transform](w, e)
		if !ok {
			continue
		}
		p, ok := ecs.GetComponent[components.MovementPattern](w, e)
		if !ok {
			continue
		}
		p.Elapsed += dt
		offset := p.Amplitude * math.Sin(p.Frequency*2*math.Pi*p.Elapsed)
		tr.Y += offset - p.Offset
		p.Offset = offset
	}
}
