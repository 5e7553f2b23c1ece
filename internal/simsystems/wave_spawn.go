package simsystems

import (
	"math/rand"
	"sort"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/gameconfig"
)

type scheduledSpawn struct {
	fireAt     float64
	waveIndex  int
	spawnIndex int
	spawn      gameconfig.EnemySpawn
}

// WaveSpawnSystem drives a per-lobby monotonic levelTime counter and
// materializes enemies from the active LevelConfig's waves as their
// schedule comes due. Ties (identical fireAt) resolve in config-array
// order: wave order, then spawn order within the wave.
type WaveSpawnSystem struct {
	enemies    *gameconfig.EnemyConfigManager
	difficulty func() Difficulty
	schedule   []scheduledSpawn
	cursor     int
	levelTime  float64
}

// NewWaveSpawnSystem flattens level's waves into a fireAt-ordered
// schedule. difficultyFn is consulted at spawn time, not schedule-build
// time, so a mid-level set_difficulty takes effect on the next spawn.
func NewWaveSpawnSystem(level gameconfig.LevelConfig, enemies *gameconfig.EnemyConfigManager, difficultyFn func() Difficulty) *WaveSpawnSystem {
	s := &WaveSpawnSystem{enemies: enemies, difficulty: difficultyFn}
	for wi, wave := range level.Waves {
		for si, spawn := range wave.Spawns {
			s.schedule = append(s.schedule, scheduledSpawn{
				fireAt:     wave.StartTime + spawn.Delay,
				waveIndex:  wi,
				spawnIndex: si,
				spawn:      spawn,
			})
		}
	}
	sort.SliceStable(s.schedule, func(i, j int) bool {
		a, b := s.schedule[i], s.schedule[j]
		if a.fireAt != b.fireAt {
			return a.fireAt < b.fireAt
		}
		if a.waveIndex != b.waveIndex {
			return a.waveIndex < b.waveIndex
		}
		return a.spawnIndex < b.spawnIndex
	})
	return s
}

// Signature is empty: the wave driver doesn't iterate existing entities,
// it creates new ones.
func (s *WaveSpawnSystem) Signature() ecs.ComponentSignature { return ecs.ComponentSignature{} }

func (s *WaveSpawnSystem) Update(w *ecs.World, dt float64) {
	s.levelTime += dt
	for s.cursor < len(s.schedule) && s.schedule[s.cursor].fireAt <= s.levelTime {
		s.fire(w, s.schedule[s.cursor].spawn)
		s.cursor++
	}
}

// CurrentWave returns the highest wave index reached so far, for match
// history reporting. Zero before the first wave fires.
func (s *WaveSpawnSystem) CurrentWave() int {
	if s.cursor == 0 {
		return 0
	}
	return s.schedule[s.cursor-1].waveIndex + 1
}

func (s *WaveSpawnSystem) fire(w *ecs.World, spawn gameconfig.EnemySpawn) {
	cfg, ok := s.enemies.Config(spawn.EnemyType)
	if !ok {
		return
	}
	diff := DifficultyMedium
	if s.difficulty != nil {
		diff = s.difficulty()
	}
	hpScale := diff.HPScale()
	velScale := diff.VelocityScale()

	for i := 0; i < spawn.Count; i++ {
		x, y := spawn.X, spawn.Y
		if x < 0 {
			x = rand.Float64() * 800
		}
		if y < 0 {
			y = rand.Float64() * 600
		}
		y += float64(i) * spawn.Spacing

		e := w.CreateEntity()
		ecs.AddComponent(w, e, components.Transform{X: x, Y: y, Scale: cfg.Transform.Scale})
		ecs.AddComponent(w, e, components.Velocity{
			DX: cfg.Velocity.DX * velScale,
			DY: cfg.Velocity.DY * velScale,
		})
		ecs.AddComponent(w, e, components.Health{
			HP:    int(float64(cfg.Health.HP) * hpScale),
			MaxHP: int(float64(cfg.Health.MaxHP) * hpScale),
		})
		ecs.AddComponent(w, e, components.Collider{Width: cfg.Collider.Width, Height: cfg.Collider.Height})
		ecs.AddComponent(w, e, components.Networked{Flag: true})
		if cfg.Pattern.Type == "sinusoidal" && cfg.Pattern.Amplitude != 0 {
			ecs.AddComponent(w, e, components.MovementPattern{
				Amplitude: cfg.Pattern.Amplitude,
				Frequency: cfg.Pattern.Frequency,
			})
		}
	}
}
