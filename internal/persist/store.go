// Package persist records completed matches for post-game history and
// leaderboards. spec.md's lobby lifecycle ends a lobby in memory only;
// this package is what survives the process restarting. Two backends are
// provided, grounded on the teacher's database package: PostgresStore
// (lib/pq over database/sql) and SupabaseStore (the Supabase REST client).
package persist

import (
	"context"
	"time"
)

// MatchRecord is one completed lobby's final tally.
type MatchRecord struct {
	LobbyCode      string    `json:"lobby_code"`
	Difficulty     string    `json:"difficulty"`
	PlayerCount    int       `json:"player_count"`
	WaveReached    int       `json:"wave_reached"`
	DurationSecs   float64   `json:"duration_seconds"`
	Survived       bool      `json:"survived"`
	EndedAt        time.Time `json:"ended_at"`
}

// Store persists and queries match history. Implementations must be safe
// for concurrent use.
type Store interface {
	SaveMatch(ctx context.Context, m MatchRecord) error
	TopScores(ctx context.Context, limit int) ([]MatchRecord, error)
	Close() error
}
