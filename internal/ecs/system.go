package ecs

// System runs one slice of simulation logic once per tick over every
// entity matching Signature.
type System interface {
	// Signature reports the components an entity must carry for this
	// system to act on it. A zero-value signature matches every entity.
	Signature() ComponentSignature
	// Update advances the system's share of the simulation by dt seconds.
	Update(w *World, dt float64)
}

// Initializer is implemented by systems that need to subscribe to the
// world's event bus (or otherwise set up state) before their first Update.
type Initializer interface {
	Initialize(w *World)
}

// RunSystems runs each system's Update in order, draining the event bus
// after every system so that entities spawned by one system's events
// (e.g. a ShootEvent listener spawning a projectile) are visible to every
// system that runs later in the same tick, and to the tick's snapshot.
func RunSystems(w *World, systems []System, dt float64) {
	for _, s := range systems {
		s.Update(w, dt)
		w.Events.Drain()
	}
}

// InitializeSystems runs Initialize on every system that implements
// Initializer. Call once per world before the first tick.
func InitializeSystems(w *World, systems []System) {
	for _, s := range systems {
		if init, ok := s.(Initializer); ok {
			init.Initialize(w)
		}
	}
}
