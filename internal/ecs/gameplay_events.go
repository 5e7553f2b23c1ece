package ecs

// ShootEvent is emitted by the shooting system each time an entity with
// its shoot input set fires (at most once per cooldown window). Listeners
// (the spawn system) turn it into a projectile entity.
type ShootEvent struct {
	Shooter Entity
	Charged bool
}

// SpawnEntityEvent requests that a new entity be created with the given
// components once the current Drain pass reaches it. Emitted by listeners
// that react to a ShootEvent or a wave spawn tick rather than creating
// entities directly, so spawn requests raised mid-tick are resolved in
// the same place regardless of which system raised them.
type SpawnEntityEvent struct {
	Kind string
	X, Y float64
	// Owner is the entity that caused the spawn, e.g. the shooter for a
	// projectile. Zero (InvalidEntity) for spawns with no owner, such as
	// enemy waves.
	Owner Entity
}
