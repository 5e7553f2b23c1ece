package simsystems

import (
	"math"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
)

var attractionSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Attraction](),
	ecs.ComponentIDFor[components.Transform](),
)

var attractableSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Input](),
	ecs.ComponentIDFor[components.Transform](),
)

// AttractionSystem pulls every Input-bearing entity within an Attraction
// entity's radius directly on Transform, bypassing Velocity (which
// InputSystem resets every tick). Used for boss tractor-beam projectiles.
type AttractionSystem struct{}

func NewAttractionSystem() *AttractionSystem { return &AttractionSystem{} }

func (s *AttractionSystem) Signature() ecs.ComponentSignature { return attractionSig }

func (s *AttractionSystem) Update(w *ecs.World, dt float64) {
	attractors := w.EntitiesWith(attractionSig)
	if len(attractors) == 0 {
		return
	}
	targets := w.EntitiesWith(attractableSig)

	for _, a := range attractors {
		attraction, _ := ecs.GetComponent[components.Attraction](w, a)
		attractTr, _ := ecs.GetComponent[components.Transform](w, a)
		if attraction.Force <= 0 || attraction.Radius <= 0 {
			continue
		}

		for _, target := range targets {
			targetTr, ok := ecs.GetComponent[components.Transform](w, target)
			if !ok {
				continue
			}
			dx := attractTr.X - targetTr.X
			dy := attractTr.Y - targetTr.Y
			d := math.Sqrt(dx*dx + dy*dy)
			if d <= 0 || d > attraction.Radius {
				continue
			}
			targetTr.X += (dx / d) * attraction.Force * dt
			targetTr.Y += (dy / d) * attraction.Force * dt
		}
	}
}
