package gameconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEnemyConfigDefaults(t *testing.T) {
	path := writeFile(t, `{"enemies":[{"id":"enemy_red","sprite":{"width":16,"height":16}}]}`)

	m := NewEnemyConfigManager()
	require.NoError(t, m.LoadFromFile(path))

	cfg, ok := m.Config("enemy_red")
	require.True(t, ok)
	assert.Equal(t, 10, cfg.Health.HP)
	assert.Equal(t, 10, cfg.Health.MaxHP)
	assert.Equal(t, "none", cfg.Pattern.Type)
	assert.Equal(t, 1.0, cfg.Transform.Scale)
	// collider derived from sprite x scale when not explicitly provided
	assert.Equal(t, 16.0, cfg.Collider.Width)
	assert.Equal(t, 16.0, cfg.Collider.Height)
}

func TestEnemyConfigExplicitColliderOverridesSprite(t *testing.T) {
	path := writeFile(t, `{"enemies":[{"id":"boss","sprite":{"width":64,"height":64},"collider":{"width":10,"height":10}}]}`)

	m := NewEnemyConfigManager()
	require.NoError(t, m.LoadFromFile(path))

	cfg, ok := m.Config("boss")
	require.True(t, ok)
	assert.Equal(t, 10.0, cfg.Collider.Width)
	assert.Equal(t, 10.0, cfg.Collider.Height)
}

func TestLevelConfigSpawnDefaultsAndOrder(t *testing.T) {
	path := writeFile(t, `{"levels":[{"id":"level1","waves":[
		{"id":"wave1","startTime":0,"spawns":[{"enemyType":"enemy_red"},{"enemyType":"enemy_blue","x":5,"y":5}]}
	]}]}`)

	m := NewLevelConfigManager()
	require.NoError(t, m.LoadFromFile(path))

	cfg, ok := m.Config("level1")
	require.True(t, ok)
	require.Len(t, cfg.Waves, 1)
	spawns := cfg.Waves[0].Spawns
	require.Len(t, spawns, 2)

	assert.Equal(t, -1.0, spawns[0].X)
	assert.Equal(t, -1.0, spawns[0].Y)
	assert.Equal(t, 1, spawns[0].Count)
	assert.Equal(t, 50.0, spawns[0].Spacing)

	assert.Equal(t, 5.0, spawns[1].X)
}
