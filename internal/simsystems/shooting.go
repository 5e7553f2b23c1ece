package simsystems

import (
	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
)

// ShootCooldown is the minimum interval between two shots from the same
// entity: 0.05s, i.e. 20 shots per second.
const ShootCooldown = 0.05

var shootingSig = ecs.NewSignature(
	ecs.ComponentIDFor[components.Transform](),
	ecs.ComponentIDFor[components.Input](),
)

// ShootingSystem emits a ShootEvent whenever an entity's Input.Shoot is
// set and at least ShootCooldown has passed since that entity's last
// shot: a fresh press fires at once, and holding shoot fires again once
// per cooldown window. The spawn listener that turns a ShootEvent into a
// projectile entity is registered separately (see
// RegisterProjectileSpawnListener) so ShootingSystem stays a pure detector.
type ShootingSystem struct {
	currentTime   float64
	lastShootTime map[ecs.Entity]float64
}

func NewShootingSystem() *ShootingSystem {
	return &ShootingSystem{
		lastShootTime: make(map[ecs.Entity]float64),
	}
}

func (s *ShootingSystem) Signature() ecs.ComponentSignature { return shootingSig }

func (s *ShootingSystem) Update(w *ecs.World, dt float64) {
	s.currentTime += dt

	for _, e := range w.EntitiesWith(s.Signature()) {
		in, ok := ecs.GetComponent[components.Input](w, e)
		if !ok {
			continue
		}

		if in.Shoot && s.canShoot(e) {
			ecs.Emit(w.Events, ecs.ShootEvent{Shooter: e, Charged: in.ChargedShoot})
			s.lastShootTime[e] = s.currentTime
		}
	}
}

func (s *ShootingSystem) canShoot(e ecs.Entity) bool {
	last, ok := s.lastShootTime[e]
	if !ok {
		return true
	}
	return s.currentTime-last >= ShootCooldown
}

// Projectile spawn tuning, ported from the original's hardcoded offsets.
const (
	projectileOffsetX   = 110.0
	projectileOffsetY   = 25.0
	projectileSpeed     = 480.0
	projectileColliderW = 16.0
	projectileColliderH = 8.0
)

// RegisterProjectileSpawnListener subscribes to ShootEvent and turns it into a
// SpawnEntityEvent; the spawn listener (see RegisterSpawnListener) materializes
// the entity. Splitting detection (ShootingSystem) from spawning mirrors
// the original's ShootingSystem::spawnProjectile indirection through
// SpawnEntityEvent.
func RegisterProjectileSpawnListener(w *ecs.World) {
	ecs.Subscribe(w.Events, func(ev ecs.ShootEvent) {
		if !w.IsAlive(ev.Shooter) {
			return
		}
		tr, ok := ecs.GetComponent[components.Transform](w, ev.Shooter)
		if !ok {
			return
		}
		ecs.Emit(w.Events, ecs.SpawnEntityEvent{
			Kind:  "projectile",
			X:     tr.X + projectileOffsetX,
			Y:     tr.Y + projectileOffsetY,
			Owner: ev.Shooter,
		})
	})
}

// RegisterSpawnListener subscribes to SpawnEntityEvent and materializes
// the requested entity. Currently handles "projectile"; enemy spawns are
// created directly by the wave driver since they need archetype data the
// event itself does not carry.
func RegisterSpawnListener(w *ecs.World) {
	ecs.Subscribe(w.Events, func(ev ecs.SpawnEntityEvent) {
		if ev.Kind != "projectile" {
			return
		}
		e := w.CreateEntity()
		ecs.AddComponent(w, e, components.Transform{X: ev.X, Y: ev.Y, Scale: 1})
		ecs.AddComponent(w, e, components.Velocity{DX: projectileSpeed, DY: 0})
		ecs.AddComponent(w, e, components.Collider{Width: projectileColliderW, Height: projectileColliderH})
		ecs.AddComponent(w, e, components.Networked{Flag: true})
	})
}
