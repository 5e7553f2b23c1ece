// Package ecs implements the entity-component-system core shared by the
// server simulation and the client reception pipeline: entity ids, typed
// component storage, signatures, systems and a per-tick event bus.
package ecs

// Entity is an opaque identifier, unique within the World that created it.
// Entity ids are never shared across worlds/lobbies.
type Entity uint32

// InvalidEntity is returned by lookups that find nothing.
const InvalidEntity Entity = 0
