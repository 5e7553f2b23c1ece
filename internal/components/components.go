// Package components defines the plain value components attached to
// entities by the simulation and reception systems. Every type here is a
// data bundle only; behavior lives in internal/simsystems and
// internal/dispatch.
package components

// Transform is an entity's world pose.
type Transform struct {
	X, Y     float64
	Rotation float64
	Scale    float64
}

// Velocity is the per-tick displacement applied to Transform by the
// movement system. Reset to the input-derived value every tick, so a
// system that wants to bypass it (Attraction) must write Transform
// directly.
type Velocity struct {
	DX, DY float64
}

// Input is the latest input reported by the owning client. Fields are
// idempotent overwrites: a later poll always wins over a stale, reordered
// one.
type Input struct {
	Up, Down, Left, Right bool
	Shoot                 bool
	ChargedShoot          bool
	Detach                bool
}

// PlayerId binds an entity to a transport endpoint id. At most one
// PlayerId-bearing entity exists per (lobby, ClientID).
type PlayerId struct {
	ClientID uint32
}

// Viewport is the client-reported screen size, attached lazily on the
// first viewport message. Its absence on an entity means no server-side
// clamping is applied.
type Viewport struct {
	Width, Height uint32
}

// Health is damage bookkeeping.
type Health struct {
	HP, MaxHP int
}

// Invulnerable marks an entity as temporarily immune to damage; Remaining
// decays toward zero once per tick.
type Invulnerable struct {
	Remaining float64
}

// Immortal marks a test-mode player entity that never takes damage,
// distinct from Invulnerable's timed decay.
type Immortal struct {
	Flag bool
}

// Attraction pulls every Input-bearing entity within Radius toward this
// entity's Transform at up to Force units/second.
type Attraction struct {
	Force  float64
	Radius float64
}

// Networked marks an entity for inclusion in snapshot broadcasts.
type Networked struct {
	Flag bool
}

// Collider is an axis-aligned bounding box used for collision detection.
type Collider struct {
	Width, Height float64
}

// MovementPattern drives a sinusoidal oscillation on top of an entity's
// base Velocity-driven motion, per an enemy archetype's pattern
// descriptor. Offset is the last applied displacement, subtracted back
// out before the next one is added so repeated application doesn't drift
// Transform away from the underlying linear path.
type MovementPattern struct {
	Amplitude float64
	Frequency float64
	Elapsed   float64
	Offset    float64
}
