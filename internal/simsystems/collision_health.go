package simsystems

import (
	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
)

// ContactDamage is applied to both sides of an overlapping collider pair
// that isn't otherwise immune.
const ContactDamage = 10

// PostHitInvulnerability is the grace window granted after taking contact
// damage, so a single overlap can't be re-scored every tick it persists.
const PostHitInvulnerability = 0.5

// DeathEvent is emitted by HealthSystem when an entity's hp reaches zero.
// The lobby listens for this to broadcast player_dead for PlayerId-bearing
// entities.
type DeathEvent struct {
	Entity    ecs.Entity
	WasPlayer bool
	ClientID  uint32
}

var colliderSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Collider](),
	ecs.ComponentIDFor[components.Transform](),
)

// CollisionSystem does pairwise AABB overlap checks between every
// Collider-bearing entity and applies ContactDamage to non-immune sides.
type CollisionSystem struct{}

func NewCollisionSystem() *CollisionSystem { return &CollisionSystem{} }

func (s *CollisionSystem) Signature() ecs.ComponentSignature { return colliderSig }

func (s *CollisionSystem) Update(w *ecs.World, dt float64) {
	entities := w.EntitiesWith(colliderSig)
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			a, b := entities[i], entities[j]
			if !overlaps(w, a, b) {
				continue
			}
			applyContactDamage(w, a)
			applyContactDamage(w, b)
		}
	}
}

func overlaps(w *ecs.World, a, b ecs.Entity) bool {
	at, _ := ecs.GetComponent[components.Transform](w, a)
	ac, _ := ecs.GetComponent[components.Collider](w, a)
	bt, _ := ecs.GetComponent[components.Transform](w, b)
	bc, _ := ecs.GetComponent[components.Collider](w, b)
	if at == nil || ac == nil || bt == nil || bc == nil {
		return false
	}
	return at.X < bt.X+bc.Width && at.X+ac.Width > bt.X &&
		at.Y < bt.Y+bc.Height && at.Y+ac.Height > bt.Y
}

func applyContactDamage(w *ecs.World, e ecs.Entity) {
	if imm, ok := ecs.GetComponent[components.Immortal](w, e); ok && imm.Flag {
		return
	}
	if inv, ok := ecs.GetComponent[components.Invulnerable](w, e); ok && inv.Remaining > 0 {
		return
	}
	hp, ok := ecs.GetComponent[components.Health](w, e)
	if !ok {
		return
	}
	hp.HP -= ContactDamage
	if ecs.HasComponent[components.Invulnerable](w, e) {
		inv, _ := ecs.GetComponent[components.Invulnerable](w, e)
		inv.Remaining = PostHitInvulnerability
	} else {
		ecs.AddComponent(w, e, components.Invulnerable{Remaining: PostHitInvulnerability})
	}
}

var healthSig = ecs.NewSignature(ecs.ComponentIDFor[components.Health]())

// HealthSystem destroys entities whose hp has reached zero, emitting a
// DeathEvent for each. Listeners run when the bus drains after the
// system, by which point the entity is already destroyed; the event
// carries the entity id and owning client instead.
type HealthSystem struct{}

func NewHealthSystem() *HealthSystem { return &HealthSystem{} }

func (s *HealthSystem) Signature() ecs.ComponentSignature { return healthSig }

func (s *HealthSystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(healthSig) {
		hp, ok := ecs.GetComponent[components.Health](w, e)
		if !ok || hp.HP > 0 {
			continue
		}
		pid, isPlayer := ecs.GetComponent[components.PlayerId](w, e)
		ev := DeathEvent{Entity: e, WasPlayer: isPlayer}
		if isPlayer {
			ev.ClientID = pid.ClientID
		}
		ecs.Emit(w.Events, ev)
		w.DestroyEntity(e)
	}
}

var invulnerableSig = ecs.NewSignature(ecs.ComponentIDFor[components.Invulnerable]())

// InvulnerabilityDecaySystem counts Invulnerable.Remaining down to zero.
type InvulnerabilityDecaySystem struct{}

func NewInvulnerabilityDecaySystem() *InvulnerabilityDecaySystem { return &InvulnerabilityDecaySystem{} }

func (s *InvulnerabilityDecaySystem) Signature() ecs.ComponentSignature { return invulnerableSig }

func (s *InvulnerabilityDecaySystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(invulnerableSig) {
		inv, _ := ecs.GetComponent[components.Invulnerable](w, e)
		inv.Remaining -= dt
		if inv.Remaining < 0 {
			inv.Remaining = 0
		}
	}
}

// CullBoundsMargin is how far outside [0, worldWidth]x[0, worldHeight] a
// non-player entity may drift before CullSystem destroys it.
const CullBoundsMargin = 200

var transformSig = ecs.NewSignature(ecs.ComponentIDFor[components.Transform]())

// CullSystem destroys non-player entities that have drifted well outside
// the playfield, e.g. projectiles and enemies that exit screen left/right.
type CullSystem struct {
	WorldWidth, WorldHeight float64
}

func NewCullSystem(worldWidth, worldHeight float64) *CullSystem {
	return &CullSystem{WorldWidth: worldWidth, WorldHeight: worldHeight}
}

func (s *CullSystem) Signature() ecs.ComponentSignature { return transformSig }

func (s *CullSystem) Update(w *ecs.World, dt float64) {
	for _, e := range w.EntitiesWith(transformSig) {
		if ecs.HasComponent[components.PlayerId](w, e) {
			continue
		}
		tr, _ := ecs.GetComponent[components.Transform](w, e)
		if tr.X < -CullBoundsMargin || tr.X > s.WorldWidth+CullBoundsMargin ||
			tr.Y < -CullBoundsMargin || tr.Y > s.WorldHeight+CullBoundsMargin {
			w.DestroyEntity(e)
		}
	}
}
