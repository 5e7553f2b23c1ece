// Package gameconfig loads the JSON archetype data (enemies.json,
// levels.json) read once at startup, per spec.md §6. Defaults mirror the
// original server/include/config loaders in original_source/.
package gameconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// SpriteConfig is client-facing sprite/animation metadata; the server
// never interprets it beyond passing it through to spawned enemies.
type SpriteConfig struct {
	SpriteID         uint32  `json:"spriteId"`
	Width            uint32  `json:"width"`
	Height           uint32  `json:"height"`
	Animated         bool    `json:"animated"`
	FrameCount       uint32  `json:"frameCount"`
	StartFrame       uint32  `json:"startFrame"`
	EndFrame         uint32  `json:"endFrame"`
	FrameTime        float64 `json:"frameTime"`
	ReverseAnimation bool    `json:"reverseAnimation"`
}

// PatternConfig describes the movement pattern applied to a spawned
// enemy: sinusoidal, linear, or none.
type PatternConfig struct {
	Type      string  `json:"type"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
}

// EnemyConfig is one archetype from enemies.json.
type EnemyConfig struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Sprite SpriteConfig `json:"sprite"`

	Transform struct {
		Scale float64 `json:"scale"`
	} `json:"transform"`

	Health struct {
		HP    int `json:"hp"`
		MaxHP int `json:"maxHp"`
	} `json:"health"`

	Collider struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"collider"`

	Velocity struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	} `json:"velocity"`

	Pattern PatternConfig `json:"pattern"`
}

// UnmarshalJSON defaults fields the way the original loader does: hp=10,
// collider derived from sprite x scale unless explicitly set, velocity=0,
// pattern=none.
func (c *EnemyConfig) UnmarshalJSON(data []byte) error {
	type alias EnemyConfig
	aux := struct {
		*alias
		Collider *struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"collider"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if c.Transform.Scale == 0 {
		c.Transform.Scale = 1.0
	}
	if c.Sprite.Width == 0 {
		c.Sprite.Width = 32
	}
	if c.Sprite.Height == 0 {
		c.Sprite.Height = 32
	}
	if c.Sprite.FrameCount == 0 {
		c.Sprite.FrameCount = 1
	}
	if c.Sprite.FrameTime == 0 {
		c.Sprite.FrameTime = 0.1
	}
	if c.Health.HP == 0 {
		c.Health.HP = 10
	}
	if c.Health.MaxHP == 0 {
		c.Health.MaxHP = 10
	}
	if c.Pattern.Type == "" {
		c.Pattern.Type = "none"
	}

	if aux.Collider != nil {
		c.Collider.Width = aux.Collider.Width
		c.Collider.Height = aux.Collider.Height
	} else {
		c.Collider.Width = float64(c.Sprite.Width) * c.Transform.Scale
		c.Collider.Height = float64(c.Sprite.Height) * c.Transform.Scale
	}
	return nil
}

// enemyFile is the top-level shape of enemies.json.
type enemyFile struct {
	Enemies []EnemyConfig `json:"enemies"`
}

// EnemyConfigManager indexes loaded enemy archetypes by id.
type EnemyConfigManager struct {
	configs map[string]EnemyConfig
	ids     []string
}

// NewEnemyConfigManager returns an empty manager; call LoadFromFile to
// populate it.
func NewEnemyConfigManager() *EnemyConfigManager {
	return &EnemyConfigManager{configs: make(map[string]EnemyConfig)}
}

// LoadFromFile reads and parses an enemies.json file. Unknown fields are
// ignored, per spec.md §6.
func (m *EnemyConfigManager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gameconfig: read enemies file %q: %w", path, err)
	}
	var file enemyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("gameconfig: parse enemies file %q: %w", path, err)
	}
	for _, cfg := range file.Enemies {
		m.configs[cfg.ID] = cfg
		m.ids = append(m.ids, cfg.ID)
	}
	return nil
}

// Config returns the archetype for id, or false if unknown.
func (m *EnemyConfigManager) Config(id string) (EnemyConfig, bool) {
	c, ok := m.configs[id]
	return c, ok
}

// EnemyIDs returns every loaded archetype id, in load order.
func (m *EnemyConfigManager) EnemyIDs() []string {
	return m.ids
}
