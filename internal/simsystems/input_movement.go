package simsystems

import (
	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
)

var inputMovementSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Transform](),
	ecs.ComponentIDFor[components.Input](),
)

// InputSystem recomputes Velocity from the current Input every tick; it
// never accumulates, matching the original's "InputMovementSystem resets
// velocity" behavior that AttractionSystem relies on to bypass it.
type InputSystem struct {
	Speed float64
}

func NewInputSystem(speed float64) *InputSystem {
	return &InputSystem{Speed: speed}
}

func (s *InputSystem) Signature() ecs.ComponentSignature { return inputMovementSig }

func (s *InputSystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(s.Signature()) {
		in, ok := ecs.GetComponent[components.Input](w, e)
		if !ok {
			continue
		}
		vel, ok := ecs.GetComponent[components.Velocity](w, e)
		if !ok {
			ecs.AddComponent(w, e, components.Velocity{})
			vel, _ = ecs.GetComponent[components.Velocity](w, e)
		}

		var dx, dy float64
		if in.Up {
			dy++
		}
		if in.Down {
			dy--
		}
		if in.Right {
			dx++
		}
		if in.Left {
			dx--
		}
		if dx != 0 || dy != 0 {
			norm := 1.0
			if dx != 0 && dy != 0 {
				norm = 0.7071067811865476 // 1/sqrt(2), diagonal normalization
			}
			dx *= s.Speed * norm
			dy *= s.Speed * norm
		}
		vel.DX, vel.DY = dx, dy
	}
}

// MovementSystem integrates Velocity into Transform once per tick.
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem { return &MovementSystem{} }

var movementSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Transform](),
	ecs.ComponentIDFor[components.Velocity](),
)

func (s *MovementSystem) Signature() ecs.ComponentSignature { return movementSig }

func (s *MovementSystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(s.Signature()) {
		tr, _ := ecs.GetComponent[components.Transform](w, e)
		vel, _ := ecs.GetComponent[components.Velocity](w, e)
		tr.X += vel.DX * dt
		tr.Y += vel.DY * dt
	}
}
