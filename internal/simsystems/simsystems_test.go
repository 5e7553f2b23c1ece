package simsystems

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/gameconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEnemyConfigs(t *testing.T, jsonBody string) *gameconfig.EnemyConfigManager {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "enemies.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonBody), 0o644))
	m := gameconfig.NewEnemyConfigManager()
	require.NoError(t, m.LoadFromFile(path))
	return m
}

func TestShootingSystemRisingEdgeAndCooldown(t *testing.T) {
	w := ecs.NewWorld()
	RegisterProjectileSpawnListener(w)
	RegisterSpawnListener(w)

	player := w.CreateEntity()
	ecs.AddComponent(w, player, components.Transform{X: 0, Y: 0, Scale: 1})
	ecs.AddComponent(w, player, components.Input{Shoot: true})

	shooting := NewShootingSystem()
	systems := []ecs.System{shooting}

	ecs.RunSystems(w, systems, 0.016)
	projectiles := w.EntitiesWith(ecs.NewSignature(ecs.ComponentIDFor[components.Velocity]()))
	require.Len(t, projectiles, 1, "rising edge of shoot must spawn exactly one projectile")

	// Still held down next tick, but cooldown (0.05s) hasn't elapsed yet.
	ecs.RunSystems(w, systems, 0.016)
	projectiles = w.EntitiesWith(ecs.NewSignature(ecs.ComponentIDFor[components.Velocity]()))
	assert.Len(t, projectiles, 1, "holding shoot must not fire again before the cooldown elapses")

	// Advance past the cooldown window.
	ecs.RunSystems(w, systems, ShootCooldown)
	projectiles = w.EntitiesWith(ecs.NewSignature(ecs.ComponentIDFor[components.Velocity]()))
	assert.Len(t, projectiles, 2, "a second shot fires once the cooldown has elapsed")
}

func TestAttractionPullsInputBearerTowardSource(t *testing.T) {
	w := ecs.NewWorld()
	source := w.CreateEntity()
	ecs.AddComponent(w, source, components.Transform{X: 100, Y: 100})
	ecs.AddComponent(w, source, components.Attraction{Force: 200, Radius: 50})

	player := w.CreateEntity()
	ecs.AddComponent(w, player, components.Transform{X: 120, Y: 100})
	ecs.AddComponent(w, player, components.Input{})

	sys := NewAttractionSystem()
	sys.Update(w, 0.016)

	tr, ok := ecs.GetComponent[components.Transform](w, player)
	require.True(t, ok)
	assert.InDelta(t, 120-200*0.016, tr.X, 1e-9)
	assert.Equal(t, 100.0, tr.Y)
}

func TestPatternMovementOscillatesAroundBasePath(t *testing.T) {
	w := ecs.NewWorld()
	e := w.CreateEntity()
	ecs.AddComponent(w, e, components.Transform{X: 0, Y: 50})
	ecs.AddComponent(w, e, components.MovementPattern{Amplitude: 10, Frequency: 1})

	sys := NewPatternMovementSystem()
	const dt = 0.25 // quarter of a 1Hz cycle per step
	for i := 0; i < 4; i++ {
		sys.Update(w, dt)
	}

	tr, ok := ecs.GetComponent[components.Transform](w, e)
	require.True(t, ok)
	assert.InDelta(t, 50, tr.Y, 1e-9, "a full cycle must return to the base Y with no residual drift")
}

func TestWaveSpawnAttachesSinusoidalPattern(t *testing.T) {
	enemies := loadEnemyConfigs(t, `{"enemies":[{"id":"weaver","pattern":{"type":"sinusoidal","amplitude":15,"frequency":2}}]}`)
	level := gameconfig.LevelConfig{
		Waves: []gameconfig.WaveConfig{
			{StartTime: 0, Spawns: []gameconfig.EnemySpawn{{EnemyType: "weaver", X: 10, Y: 10, Count: 1}}},
		},
	}
	w := ecs.NewWorld()
	sys := NewWaveSpawnSystem(level, enemies, func() Difficulty { return DifficultyMedium })
	sys.Update(w, 0)

	entities := w.EntitiesWith(ecs.NewSignature(ecs.ComponentIDFor[components.MovementPattern]()))
	require.Len(t, entities, 1, "a sinusoidal enemy archetype must carry a MovementPattern component")
	p, ok := ecs.GetComponent[components.MovementPattern](w, entities[0])
	require.True(t, ok)
	assert.Equal(t, 15.0, p.Amplitude)
	assert.Equal(t, 2.0, p.Frequency)
}

func TestWaveSpawnTieBreakUsesConfigOrder(t *testing.T) {
	enemies := loadEnemyConfigs(t, `{"enemies":[{"id":"enemy_a"},{"id":"enemy_b"}]}`)

	level := gameconfig.LevelConfig{
		Waves: []gameconfig.WaveConfig{
			{
				StartTime: 0,
				Spawns: []gameconfig.EnemySpawn{
					{EnemyType: "enemy_a", X: 1, Y: 1, Delay: 1, Count: 1, Spacing: 1},
					{EnemyType: "enemy_b", X: 2, Y: 2, Delay: 1, Count: 1, Spacing: 1},
				},
			},
		},
	}

	w := ecs.NewWorld()
	sys := NewWaveSpawnSystem(level, enemies, func() Difficulty { return DifficultyMedium })
	sys.Update(w, 1.0)

	entities := w.EntitiesWith(ecs.NewSignature(ecs.ComponentIDFor[components.Collider]()))
	require.Len(t, entities, 2)
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	first, _ := ecs.GetComponent[components.Transform](w, entities[0])
	second, _ := ecs.GetComponent[components.Transform](w, entities[1])
	assert.Equal(t, 1.0, first.X, "identical fireAt resolves in config-array order: enemy_a spawns first")
	assert.Equal(t, 2.0, second.X)
}

func TestHealthSystemDestroysAtZeroAndEmitsDeathEvent(t *testing.T) {
	w := ecs.NewWorld()
	var died DeathEvent
	ecs.Subscribe(w.Events, func(ev DeathEvent) { died = ev })

	e := w.CreateEntity()
	ecs.AddComponent(w, e, components.Health{HP: 0, MaxHP: 10})
	ecs.AddComponent(w, e, components.PlayerId{ClientID: 7})

	sys := NewHealthSystem()
	ecs.RunSystems(w, []ecs.System{sys}, 0.016)

	assert.False(t, w.IsAlive(e))
	assert.True(t, died.WasPlayer)
	assert.Equal(t, uint32(7), died.ClientID)
}
