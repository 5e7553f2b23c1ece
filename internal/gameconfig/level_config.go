package gameconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnemySpawn is one scheduled spawn within a WaveConfig.
type EnemySpawn struct {
	EnemyType string  `json:"enemyType"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Delay     float64 `json:"delay"`
	Count     int     `json:"count"`
	Spacing   float64 `json:"spacing"`
}

// UnmarshalJSON applies the original loader's defaults: x=y=-1 (random
// position), count=1, spacing=50.
func (s *EnemySpawn) UnmarshalJSON(data []byte) error {
	type alias EnemySpawn
	aux := alias{EnemyType: "enemy_red", X: -1, Y: -1, Count: 1, Spacing: 50}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = EnemySpawn(aux)
	return nil
}

// WaveConfig is one timed wave of enemy spawns within a level.
type WaveConfig struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartTime float64      `json:"startTime"`
	Spawns    []EnemySpawn `json:"spawns"`
}

// LevelConfig is one complete level's waves, in config-array order. Order
// is load-bearing: the wave driver's tie-break rule for identical
// startTime+delay falls back to this array order.
type LevelConfig struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Waves       []WaveConfig `json:"waves"`
}

type levelFile struct {
	Levels []LevelConfig `json:"levels"`
}

// LevelConfigManager indexes loaded levels by id, preserving load order.
type LevelConfigManager struct {
	configs map[string]LevelConfig
	ids     []string
}

// NewLevelConfigManager returns an empty manager; call LoadFromFile to
// populate it.
func NewLevelConfigManager() *LevelConfigManager {
	return &LevelConfigManager{configs: make(map[string]LevelConfig)}
}

// LoadFromFile reads and parses a levels.json file.
func (m *LevelConfigManager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gameconfig: read levels file %q: %w", path, err)
	}
	var file levelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("gameconfig: parse levels file %q: %w", path, err)
	}
	for _, cfg := range file.Levels {
		m.configs[cfg.ID] = cfg
		m.ids = append(m.ids, cfg.ID)
	}
	return nil
}

// Config returns the level for id, or false if unknown.
func (m *LevelConfigManager) Config(id string) (LevelConfig, bool) {
	c, ok := m.configs[id]
	return c, ok
}

// LevelIDs returns every loaded level id, in load order.
func (m *LevelConfigManager) LevelIDs() []string {
	return m.ids
}
