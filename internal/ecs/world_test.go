package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posComponent struct{ X, Y float64 }
type velComponent struct{ X, Y float64 }

func TestAddGetRemoveComponent(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	require.True(t, w.IsAlive(e))

	AddComponent(w, e, posComponent{X: 1, Y: 2})
	require.True(t, HasComponent[posComponent](w, e))

	pos, ok := GetComponent[posComponent](w, e)
	require.True(t, ok)
	assert.Equal(t, 1.0, pos.X)

	RemoveComponent[posComponent](w, e)
	assert.False(t, HasComponent[posComponent](w, e))
}

func TestDestroyEntityClearsComponents(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	AddComponent(w, e, posComponent{X: 5})

	w.DestroyEntity(e)

	assert.False(t, w.IsAlive(e))
	assert.False(t, HasComponent[posComponent](w, e))
}

func TestEntitiesWithSignatureTracksLiveState(t *testing.T) {
	w := NewWorld()
	moving := w.CreateEntity()
	AddComponent(w, moving, posComponent{})
	AddComponent(w, moving, velComponent{})

	still := w.CreateEntity()
	AddComponent(w, still, posComponent{})

	required := NewSignature(ComponentIDFor[posComponent](), ComponentIDFor[velComponent]())
	matches := w.EntitiesWith(required)
	require.Len(t, matches, 1)
	assert.Equal(t, moving, matches[0])

	// Adding the missing component after the fact must change the result
	// on the very next query: there is no cached membership to go stale.
	AddComponent(w, still, velComponent{})
	matches = w.EntitiesWith(required)
	assert.Len(t, matches, 2)

	w.DestroyEntity(moving)
	matches = w.EntitiesWith(required)
	require.Len(t, matches, 1)
	assert.Equal(t, still, matches[0])
}

type spawnOrderSystem struct {
	onUpdate func(w *World)
}

func (s *spawnOrderSystem) Signature() ComponentSignature { return ComponentSignature{} }
func (s *spawnOrderSystem) Update(w *World, dt float64)   { s.onUpdate(w) }

func TestRunSystemsDeliversChainedEventsSameTick(t *testing.T) {
	w := NewWorld()
	var spawned Entity

	Subscribe(w.Events, func(ev ShootEvent) {
		Emit(w.Events, SpawnEntityEvent{Kind: "bullet", Owner: ev.Shooter})
	})
	Subscribe(w.Events, func(ev SpawnEntityEvent) {
		spawned = w.CreateEntity()
		AddComponent(w, spawned, posComponent{X: ev.X, Y: ev.Y})
	})

	shooter := w.CreateEntity()
	shoot := &spawnOrderSystem{onUpdate: func(w *World) {
		Emit(w.Events, ShootEvent{Shooter: shooter})
	}}
	var sawSpawned bool
	collect := &spawnOrderSystem{onUpdate: func(w *World) {
		sawSpawned = spawned != InvalidEntity && w.IsAlive(spawned)
	}}

	RunSystems(w, []System{shoot, collect}, 1.0/60.0)

	assert.True(t, sawSpawned, "entity spawned by a chained event must be visible to systems later in the same tick")
}
